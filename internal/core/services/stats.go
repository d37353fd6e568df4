package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// recentQueryWindow is how many logged queries feed the response-time
// average.
const recentQueryWindow = 100

// StatsService aggregates per-user corpus and query statistics.
type StatsService struct {
	docStore driven.DocumentStore
	queryLog driven.QueryLogStore
}

// NewStatsService creates a stats service. The query log may be nil;
// query statistics are then reported as zero.
func NewStatsService(docStore driven.DocumentStore, queryLog driven.QueryLogStore) *StatsService {
	return &StatsService{docStore: docStore, queryLog: queryLog}
}

// ForUser computes statistics over the user's own documents and their
// recent query history.
func (s *StatsService) ForUser(ctx context.Context, userID string) (driving.Statistics, error) {
	docs, err := s.docStore.ListByOwner(ctx, userID)
	if err != nil {
		return driving.Statistics{}, fmt.Errorf("listing documents: %w", err)
	}

	stats := driving.Statistics{DocumentCount: len(docs)}
	for _, d := range docs {
		stats.TotalFileBytes += d.FileSize
		switch d.Status {
		case domain.StatusCompleted:
			stats.CompletedCount++
			stats.TotalPages += d.PageCount
			stats.TotalChunks += d.ChunkCount
		case domain.StatusFailed:
			stats.FailedCount++
		}
	}

	if s.queryLog != nil {
		recent, err := s.queryLog.RecentQueries(ctx, userID, recentQueryWindow)
		if err != nil {
			return driving.Statistics{}, fmt.Errorf("reading query history: %w", err)
		}
		stats.QueryCount = len(recent)
		if len(recent) > 0 {
			var total float64
			for _, r := range recent {
				total += r.Duration.Seconds()
			}
			stats.AvgResponseSeconds = total / float64(len(recent))
		}
	}
	return stats, nil
}
