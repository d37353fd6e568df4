package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// defaultQueueDepth bounds how many documents may wait for a worker.
const defaultQueueDepth = 64

// ProcessingQueue runs document processing on a bounded worker pool.
// An ID already queued or being processed cannot be enqueued again, so
// "already processing" is a property of the queue itself.
type ProcessingQueue struct {
	jobs    chan string
	process func(ctx context.Context, documentID string)

	mu       sync.Mutex
	inflight map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewProcessingQueue creates a queue and starts its workers.
// The process function is invoked once per dequeued document; it must
// handle its own failures (the queue retries nothing).
func NewProcessingQueue(workers int, process func(ctx context.Context, documentID string)) *ProcessingQueue {
	if workers <= 0 {
		workers = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &ProcessingQueue{
		jobs:     make(chan string, defaultQueueDepth),
		process:  process,
		inflight: make(map[string]struct{}),
		cancel:   cancel,
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker(ctx)
	}
	return q
}

func (q *ProcessingQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-q.jobs:
			if !ok {
				return
			}
			logger.Debug("Processing document %s", id)
			q.process(ctx, id)
			q.done(id)
		}
	}
}

// Enqueue submits a document for processing. Returns
// domain.ErrProcessingInProgress when the ID is already queued or
// running, and domain.ErrInvalidInput when the queue is saturated or
// shut down.
func (q *ProcessingQueue) Enqueue(documentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return domain.ErrInvalidInput
	}
	if _, busy := q.inflight[documentID]; busy {
		return domain.ErrProcessingInProgress
	}

	select {
	case q.jobs <- documentID:
		q.inflight[documentID] = struct{}{}
		return nil
	default:
		return domain.ErrInvalidInput
	}
}

// Busy reports whether a document is queued or being processed.
func (q *ProcessingQueue) Busy(documentID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, busy := q.inflight[documentID]
	return busy
}

func (q *ProcessingQueue) done(documentID string) {
	q.mu.Lock()
	delete(q.inflight, documentID)
	q.mu.Unlock()
}

// Close stops accepting work, drains queued documents and waits for
// the workers to exit.
func (q *ProcessingQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
}
