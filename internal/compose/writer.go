package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileWriter performs the actual filesystem writes. The engine decides
// what and where; how the bytes land (atomicity, permissions) is the
// writer's concern.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// AtomicWriter writes through a temp file in the target directory followed
// by a rename, so readers never observe a half-written document.
type AtomicWriter struct{}

// WriteFile implements FileWriter.
func (AtomicWriter) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".layerweave-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// MemWriter collects writes in memory. Test double for FileWriter.
type MemWriter struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// NewMemWriter creates an empty in-memory writer.
func NewMemWriter() *MemWriter {
	return &MemWriter{Files: make(map[string][]byte)}
}

// WriteFile implements FileWriter.
func (w *MemWriter) WriteFile(path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Files[path] = append([]byte(nil), data...)
	return nil
}
