package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// settleDelay gives the writing process time to finish before the
// file is read.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and upload new PDFs automatically",
	Long: `Watches a directory and uploads every PDF that appears in it.
Runs until interrupted. Files already present are uploaded on start;
duplicates are detected by content hash and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	ownerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	// Pick up PDFs that were already in the directory.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !isPDF(entry.Name()) {
			continue
		}
		watchUpload(cmd, ownerID, filepath.Join(dir, entry.Name()))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for new PDFs (Ctrl+C to stop)...\n", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isPDF(event.Name) {
				continue
			}
			time.Sleep(settleDelay)
			watchUpload(cmd, ownerID, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func watchUpload(cmd *cobra.Command, ownerID, path string) {
	f, err := os.Open(path)
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", path, err)
		return
	}
	defer f.Close()

	doc, err := documentService.Upload(cmd.Context(), driving.UploadRequest{
		OwnerID:    ownerID,
		Filename:   filepath.Base(path),
		Visibility: domain.VisibilityPrivate,
		Content:    f,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		cmd.Printf("  %s: already indexed\n", filepath.Base(path))
	case err != nil:
		cmd.PrintErrf("  %s: %v\n", path, err)
	default:
		cmd.Printf("  %s: queued as %s\n", filepath.Base(path), doc.ID)
	}
}
