package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var processed []string

	q := NewProcessingQueue(2, func(_ context.Context, id string) {
		mu.Lock()
		processed = append(processed, id)
		mu.Unlock()
	})

	require.NoError(t, q.Enqueue("d1"))
	require.NoError(t, q.Enqueue("d2"))
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"d1", "d2"}, processed)
}

func TestQueueSuppressesDuplicates(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	q := NewProcessingQueue(1, func(_ context.Context, _ string) {
		close(started)
		<-release
	})
	defer func() {
		close(release)
		q.Close()
	}()

	require.NoError(t, q.Enqueue("d1"))
	<-started

	// d1 is mid-processing; a second submission must be rejected.
	assert.ErrorIs(t, q.Enqueue("d1"), domain.ErrProcessingInProgress)
	assert.True(t, q.Busy("d1"))
}

func TestQueueReacceptsAfterCompletion(t *testing.T) {
	done := make(chan string, 2)
	q := NewProcessingQueue(1, func(_ context.Context, id string) {
		done <- id
	})
	defer q.Close()

	require.NoError(t, q.Enqueue("d1"))
	<-done

	// The inflight mark clears shortly after processing returns.
	require.Eventually(t, func() bool {
		return q.Enqueue("d1") == nil
	}, time.Second, 5*time.Millisecond)
	<-done
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewProcessingQueue(1, func(_ context.Context, _ string) {})
	q.Close()
	assert.Error(t, q.Enqueue("d1"))
}
