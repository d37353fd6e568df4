package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store, id, username string) {
	t.Helper()
	require.NoError(t, store.UserStore().SaveUser(context.Background(), &domain.User{
		ID: id, Username: username, Email: username + "@example.com",
		PasswordHash: "hash", Role: domain.RoleUser, Active: true,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	users := store.UserStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Active)
	assert.True(t, got.LastLogin.IsZero())

	byName, err := users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	_, err = users.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	err := store.UserStore().SaveUser(ctx, &domain.User{
		ID: "u2", Username: "alice", Email: "other@example.com",
		PasswordHash: "hash", Role: domain.RoleUser, CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTouchLoginAndSetActive(t *testing.T) {
	store := newTestStore(t)
	users := store.UserStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, users.TouchLogin(ctx, "u1", at))
	require.NoError(t, users.SetActive(ctx, "u1", false))

	got, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.False(t, got.LastLogin.IsZero())
}

func seedDocument(t *testing.T, store *Store, id, owner string, vis domain.Visibility) *domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(id, owner, id+".pdf", "hash-"+id, 1234, vis)
	require.NoError(t, err)
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), doc))
	return doc
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedDocument(t, store, "d1", "u1", domain.VisibilityPrivate)

	got, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "d1.pdf", got.Filename)

	byHash, err := docs.FindByHash(ctx, "u1", "hash-d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", byHash.ID)

	_, err = docs.FindByHash(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentVisibilityLists(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedDocument(t, store, "mine", "u1", domain.VisibilityPrivate)
	seedDocument(t, store, "shared", "u2", domain.VisibilityPublic)
	seedDocument(t, store, "hidden", "u2", domain.VisibilityPrivate)

	visible, err := docs.ListVisible(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, visible, 2)

	all, err := docs.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	owned, err := docs.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestCompleteProcessingReplacesChunks(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedDocument(t, store, "d1", "u1", domain.VisibilityPrivate)

	first := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Page: 1, Content: "first run chunk", Embedding: []float32{1, 2, 3}},
		{ID: "c2", DocumentID: "d1", Index: 1, Page: 2, Content: "second chunk"},
	}
	require.NoError(t, docs.CompleteProcessing(ctx, "d1", 2, first))

	// Reprocessing replaces the chunk set wholesale.
	second := []domain.Chunk{
		{ID: "c3", DocumentID: "d1", Index: 0, Page: 1, Content: "replacement chunk"},
	}
	require.NoError(t, docs.CompleteProcessing(ctx, "d1", 1, second))

	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c3", chunks[0].ID)

	doc, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, 1, doc.ChunkCount)
}

func TestChunkEmbeddingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedDocument(t, store, "d1", "u1", domain.VisibilityPrivate)

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Page: 1, Section: "Intro",
			Content: "embedded chunk", Embedding: []float32{0.5, -1.25, 3}},
	}
	require.NoError(t, docs.CompleteProcessing(ctx, "d1", 1, chunks))

	got, err := docs.GetChunksByID(ctx, []string{"c1", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float32{0.5, -1.25, 3}, got[0].Embedding)
	assert.Equal(t, "Intro", got[0].Section)
}

func TestDeleteDocumentCascades(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedDocument(t, store, "d1", "u1", domain.VisibilityPrivate)
	require.NoError(t, docs.CompleteProcessing(ctx, "d1", 1, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Page: 1, Content: "chunk"},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))
	_, err := docs.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := docs.GetChunksByID(ctx, []string{"c1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	seedUser(t, store, "u1", "alice")
	seedDocument(t, store, "d1", "u1", domain.VisibilityPrivate)

	require.NoError(t, docs.UpdateStatus(ctx, "d1", domain.StatusFailed, "boom"))
	doc, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, "boom", doc.ProcessingError)

	// Leaving the failed state clears the stored error.
	require.NoError(t, docs.UpdateStatus(ctx, "d1", domain.StatusProcessing, "stale"))
	doc, err = docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.ProcessingError)

	assert.ErrorIs(t, docs.UpdateStatus(ctx, "ghost", domain.StatusFailed, ""), domain.ErrNotFound)
}

func TestQueryLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	log := store.QueryLogStore()
	ctx := context.Background()

	for i, q := range []string{"first?", "second?", "third?"} {
		require.NoError(t, log.LogQuery(ctx, driven.QueryRecord{
			ID: string(rune('a' + i)), UserID: "u1", Question: q,
			Answer: "answered", Confidence: 0.8, Sources: 2,
			Duration:  1500 * time.Millisecond,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := log.RecentQueries(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third?", recent[0].Question)
	assert.Equal(t, 1500*time.Millisecond, recent[0].Duration)

	count, err := log.CountQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
