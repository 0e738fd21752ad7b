package persistence

import (
	"fmt"

	"github.com/hupe1980/simring/internal/hash"
	"github.com/hupe1980/simring/ring"
)

// Snapshot is the serializable state of an index.
type Snapshot struct {
	Triples   []ring.Triple
	MaxK      uint64
	Adjacency [][]uint64 // Row i lists the ranked neighbours of node i+1
}

func (s *Snapshot) encodeBody() []byte {
	e := &encoder{buf: make([]byte, 0, 3*len(s.Triples)+len(s.Adjacency)*int(s.MaxK+1))}

	e.uvarint(uint64(len(s.Triples)))
	for _, t := range s.Triples {
		e.uvarint(t.S)
		e.uvarint(t.P)
		e.uvarint(t.O)
	}

	e.uvarint(s.MaxK)

	e.uvarint(uint64(len(s.Adjacency)))
	for _, row := range s.Adjacency {
		e.uvarints(row)
	}

	return e.buf
}

func decodeBody(body []byte) (*Snapshot, error) {
	d := &decoder{buf: body}
	s := &Snapshot{}

	if n := d.count(3); n > 0 {
		s.Triples = make([]ring.Triple, n)
		for i := range s.Triples {
			s.Triples[i] = ring.Triple{S: d.uvarint(), P: d.uvarint(), O: d.uvarint()}
		}
	}

	s.MaxK = d.uvarint()

	if n := d.count(1); n > 0 {
		s.Adjacency = make([][]uint64, n)
		for i := range s.Adjacency {
			s.Adjacency[i] = d.uvarints()
		}
	}

	if err := d.finish(); err != nil {
		return nil, err
	}

	return s, nil
}

// Marshal encodes the snapshot with header, compressing the body with c.
func (s *Snapshot) Marshal(c Compression) ([]byte, error) {
	raw := s.encodeBody()

	stored, used, err := compress(raw, c)
	if err != nil {
		return nil, fmt.Errorf("persistence: compress: %w", err)
	}

	h := FileHeader{
		Magic:        MagicNumber,
		Version:      Version,
		Compression:  used,
		TripleCount:  uint64(len(s.Triples)),
		NodeCount:    uint64(len(s.Adjacency)),
		RawLength:    uint64(len(raw)),
		StoredLength: uint64(len(stored)),
		Checksum:     hash.CRC32C(stored),
	}

	hdr, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(hdr)+len(stored))
	out = append(out, hdr...)

	return append(out, stored...), nil
}

// Unmarshal decodes a snapshot, verifying header and checksum.
func Unmarshal(data []byte) (*Snapshot, *FileHeader, error) {
	h := &FileHeader{}
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, nil, err
	}

	stored := data[HeaderSize:]
	if uint64(len(stored)) != h.StoredLength {
		return nil, nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(stored), h.StoredLength)
	}

	if err := verifyChecksum(stored, h.Checksum); err != nil {
		return nil, nil, err
	}

	raw, err := decompress(stored, h.Compression, h.RawLength)
	if err != nil {
		return nil, nil, err
	}

	s, err := decodeBody(raw)
	if err != nil {
		return nil, nil, err
	}

	if uint64(len(s.Triples)) != h.TripleCount || uint64(len(s.Adjacency)) != h.NodeCount {
		return nil, nil, fmt.Errorf("%w: counts do not match header", ErrCorrupt)
	}

	return s, h, nil
}
