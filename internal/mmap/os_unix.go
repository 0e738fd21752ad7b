//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var advice = [...]int{
	Normal:     unix.MADV_NORMAL,
	Sequential: unix.MADV_SEQUENTIAL,
	Random:     unix.MADV_RANDOM,
	WillNeed:   unix.MADV_WILLNEED,
	DontNeed:   unix.MADV_DONTNEED,
}

func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	return data, func() error { return unix.Munmap(data) }, nil
}

func advise(data []byte, h Hint) error {
	if int(h) >= len(advice) {
		h = Normal
	}

	// Hints are best effort; EINVAL covers unaligned or unsupported advice.
	if err := unix.Madvise(data, advice[h]); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}

	return nil
}
