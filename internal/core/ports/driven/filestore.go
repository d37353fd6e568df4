package driven

import (
	"context"
	"io"
)

// FileStore keeps the original uploaded PDF bytes.
type FileStore interface {
	// Save streams an upload to storage and returns its stored path.
	// The hash is used to build a collision-free name.
	Save(ctx context.Context, filename, fileHash string, r io.Reader) (string, error)

	// Open returns a reader over a stored file.
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, storedPath string) error
}
