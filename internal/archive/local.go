package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes blobs under a base directory, one file per key.
type Local struct {
	baseDir string
}

// NewLocal builds a filesystem store rooted at baseDir.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir %q: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Save writes the blob to disk and returns a file:// URI. Path separators
// in the key become directories.
func (l *Local) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(key, "/"))
	path := filepath.Join(l.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create archive subdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive blob %q: %w", key, err)
	}
	return "file://" + path, nil
}
