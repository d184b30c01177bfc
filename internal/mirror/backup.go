package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSnapshotWriter drops each snapshot as a timestamped JSON file in a
// directory, keeping a trail of document backups.
type FileSnapshotWriter struct {
	dir string
}

var _ SnapshotWriter = (*FileSnapshotWriter)(nil)

func NewFileSnapshotWriter(dir string) *FileSnapshotWriter {
	return &FileSnapshotWriter{dir: dir}
}

func (w *FileSnapshotWriter) WriteSnapshot(_ context.Context, payload []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	name := fmt.Sprintf("document-%s.json", time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return nil
}
