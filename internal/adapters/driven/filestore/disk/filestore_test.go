package disk

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.Save(ctx, "my report.pdf", "abcdef1234567890", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Contains(t, path, "abcdef12")
	assert.Contains(t, path, "my_report.pdf")

	r, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestSaveSameContentTwice(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Save(ctx, "a.pdf", "deadbeef", strings.NewReader("x"))
	require.NoError(t, err)
	second, err := store.Save(ctx, "a.pdf", "deadbeef", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRemoveMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), "/nonexistent/file.pdf"))
}

func TestSanitizeStripsPathComponents(t *testing.T) {
	assert.Equal(t, "evil.pdf", sanitize("../../evil.pdf"))
	assert.Equal(t, "a_b.pdf", sanitize("a b.pdf"))
}
