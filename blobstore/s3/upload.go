package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/simring/internal/hash"
)

// UploadConfig tunes snapshot uploads.
type UploadConfig struct {
	// PartSize is the multipart part size used by Create. Default 8 MiB.
	PartSize int64
	// Concurrency is the number of parts in flight. Default 5.
	Concurrency int
	// EnableChecksum attaches CRC32C checksums to uploads. Default true.
	EnableChecksum bool
	// LeavePartsOnError keeps the parts of a failed multipart upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the defaults used by NewStore.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}

		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}

		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// crc32cHeader encodes the CRC32C of data the way S3 expects it: base64 of
// the big-endian sum.
func crc32cHeader(data []byte) string {
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], hash.CRC32C(data))

	return base64.StdEncoding.EncodeToString(sum[:])
}

// putInput builds a single-request upload. ifNoneMatch makes S3 refuse to
// replace an existing key.
func (s *Store) putInput(name string, data []byte, ifNoneMatch bool) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}

	if s.cfg.EnableChecksum {
		input.ChecksumCRC32C = aws.String(crc32cHeader(data))
	}

	if ifNoneMatch {
		input.IfNoneMatch = aws.String("*")
	}

	return input
}

// uploadWriter feeds a background multipart upload through a pipe. The
// object appears when Close returns nil.
type uploadWriter struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	once sync.Once
	err  error
}

func (s *Store) newUploadWriter(ctx context.Context, name string) *uploadWriter {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)

	w := &uploadWriter{pw: pw, cancel: cancel, done: make(chan error, 1)}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   pr,
	}

	if s.cfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := s.uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *uploadWriter) Write(p []byte) (int, error) { return w.pw.Write(p) }

// Sync is a no-op; nothing is visible before Close.
func (w *uploadWriter) Sync() error { return nil }

func (w *uploadWriter) Close() error {
	w.once.Do(func() {
		defer w.cancel()

		if err := w.pw.Close(); err != nil {
			w.err = err
			return
		}

		w.err = <-w.done
	})

	return w.err
}
