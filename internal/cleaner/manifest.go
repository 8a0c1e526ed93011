package cleaner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// DeletionManifest records files removed during a clean
type DeletionManifest struct {
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	DeletedAt time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{
		Files:     []DeletedFileInfo{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *DeletionManifest) Add(path string, size int64) {
	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// WriteTo writes the manifest as plain text
func (m *DeletionManifest) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	fmt.Fprintf(cw, "Deletion Manifest\n")
	fmt.Fprintf(cw, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(cw, "Total Size: %s (%d bytes)\n", humanize.IBytes(uint64(m.TotalSize)), m.TotalSize)
	fmt.Fprintf(cw, "Total Files: %d\n\n", len(m.Files))

	for _, f := range m.Files {
		fmt.Fprintf(cw, "%s | %d bytes | %s\n", f.Path, f.Size, f.DeletedAt.Format(time.RFC3339))
	}

	return cw.n, cw.err
}

// Save saves the manifest to a file
func (m *DeletionManifest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer file.Close()

	if _, err := m.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return file.Close()
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}
