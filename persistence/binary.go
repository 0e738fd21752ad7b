package persistence

import (
	"encoding/binary"
	"fmt"
)

// encoder appends unsigned varints to a buffer.
type encoder struct {
	buf []byte
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) uvarints(vs []uint64) {
	e.uvarint(uint64(len(vs)))

	for _, v := range vs {
		e.uvarint(v)
	}
}

// decoder reads unsigned varints; the first error sticks.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}

	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		d.err = fmt.Errorf("%w: bad varint at offset %d", ErrCorrupt, d.off)
		return 0
	}

	d.off += n

	return v
}

// count reads a length prefix, rejecting values the remaining bytes
// cannot possibly hold.
func (d *decoder) count(perItem int) int {
	n := d.uvarint()
	if d.err != nil {
		return 0
	}

	if n > uint64(d.remaining()/perItem) {
		d.err = fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrCorrupt, n, d.remaining())
		return 0
	}

	return int(n)
}

func (d *decoder) uvarints() []uint64 {
	n := d.count(1)
	if n == 0 {
		return nil
	}

	vs := make([]uint64, n)
	for i := range vs {
		vs[i] = d.uvarint()
	}

	return vs
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}

	if d.remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, d.remaining())
	}

	return nil
}
