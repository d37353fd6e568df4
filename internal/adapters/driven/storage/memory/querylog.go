package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure QueryLog implements the interface.
var _ driven.QueryLogStore = (*QueryLog)(nil)

// QueryLog is an in-memory query history.
type QueryLog struct {
	mu      sync.RWMutex
	records []driven.QueryRecord
}

// NewQueryLog creates an empty in-memory query log.
func NewQueryLog() *QueryLog {
	return &QueryLog{}
}

// LogQuery appends one query record.
func (l *QueryLog) LogQuery(_ context.Context, rec driven.QueryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// RecentQueries returns the newest records for a user, most recent first.
func (l *QueryLog) RecentQueries(_ context.Context, userID string, limit int) ([]driven.QueryRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []driven.QueryRecord
	for i := len(l.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if l.records[i].UserID == userID {
			out = append(out, l.records[i])
		}
	}
	return out, nil
}

// CountQueries returns the total number of logged queries.
func (l *QueryLog) CountQueries(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}
