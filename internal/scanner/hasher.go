package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/afero"
)

// Hasher computes SHA-256 content digests with a fixed read buffer, so
// memory per file is bounded by the buffer size
type Hasher struct {
	fs         afero.Fs
	bufferSize int
	buffers    sync.Pool
}

// NewHasher creates a hasher reading bufferSize bytes at a time
func NewHasher(fs afero.Fs, bufferSize int) *Hasher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	h := &Hasher{
		fs:         fs,
		bufferSize: bufferSize,
	}
	h.buffers.New = func() any {
		buf := make([]byte, h.bufferSize)
		return &buf
	}
	return h
}

// Hash returns the hex-encoded digest of the file's full content
func (h *Hasher) Hash(path string) (string, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", &ScanError{Kind: KindHash, Path: path, Err: err}
	}
	defer file.Close()

	bufp := h.buffers.Get().(*[]byte)
	defer h.buffers.Put(bufp)
	buf := *bufp

	digest := sha256.New()
	for {
		n, err := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &ScanError{Kind: KindHash, Path: path, Err: fmt.Errorf("read failed: %w", err)}
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
