package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "SRNG").
	MagicNumber = 0x474e5253
	// Version is the current file format version.
	Version = 1
	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 48
)

var (
	ErrBadMagic       = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	ErrChecksum       = errors.New("persistence: checksum mismatch")
	ErrCorrupt        = errors.New("persistence: corrupt snapshot")
)

// FileHeader is the fixed-size header at the start of every snapshot.
type FileHeader struct {
	Magic        uint32
	Version      uint16
	Compression  Compression
	Reserved1    uint8
	TripleCount  uint64
	NodeCount    uint64
	RawLength    uint64 // Body length before compression
	StoredLength uint64 // Body length as stored
	Checksum     uint32 // CRC32C of the stored body
	Reserved2    uint32
}

// MarshalBinary encodes the header in little-endian order.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)

	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes and validates a header.
func (h *FileHeader) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrCorrupt, len(data), HeaderSize)
	}

	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, h); err != nil {
		return err
	}

	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrBadMagic, h.Magic)
	}

	if h.Version != Version {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}

	if !h.Compression.Valid() {
		return fmt.Errorf("%w: compression %d", ErrCorrupt, h.Compression)
	}

	return nil
}
