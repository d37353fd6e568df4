// Package disk stores uploaded PDF files on the local filesystem.
package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// DefaultDirName is the upload directory under the data directory.
const DefaultDirName = "uploads"

// Store keeps uploaded files under a single directory.
type Store struct {
	dir string
}

// NewStore creates a disk file store rooted at dir, creating the
// directory if needed. An empty dir defaults to ~/.pdfrag/data/uploads.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".pdfrag", "data", DefaultDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save streams an upload to disk and returns its stored path. The name
// combines a timestamp, a hash prefix and the sanitised original
// filename so repeated uploads never collide.
func (s *Store) Save(ctx context.Context, filename, fileHash string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prefix := fileHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixNano(), prefix, sanitize(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

// Open returns a reader over a stored file.
func (s *Store) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(storedPath)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, storedPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}

// sanitize strips path separators and whitespace from a filename.
func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '-'
		case r == ' ':
			return '_'
		default:
			return r
		}
	}, name)
}
