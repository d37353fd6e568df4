package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show usage statistics and service health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	stats, err := statsService.ForUser(ctx, callerID)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	cmd.Printf("Documents: %d (%d completed, %d failed)\n",
		stats.DocumentCount, stats.CompletedCount, stats.FailedCount)
	cmd.Printf("Pages:     %d\n", stats.TotalPages)
	cmd.Printf("Chunks:    %d\n", stats.TotalChunks)
	cmd.Printf("Storage:   %d bytes\n", stats.TotalFileBytes)
	cmd.Printf("Queries:   %d", stats.QueryCount)
	if stats.QueryCount > 0 {
		cmd.Printf("  (avg %.1fs)", stats.AvgResponseSeconds)
	}
	cmd.Println()

	cmd.Println("\nServices:")
	cmd.Printf("  embedding (%s): %s\n", embedder.ModelName(), pingStatus(ctx, embedder.Ping))
	cmd.Printf("  llm       (%s): %s\n", llmService.ModelName(), pingStatus(ctx, llmService.Ping))

	if count, err := vectorIndex.Count(ctx); err == nil {
		cmd.Printf("  vectors:  %d indexed\n", count)
	}
	return nil
}

func pingStatus(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
