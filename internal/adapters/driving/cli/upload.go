package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
)

var uploadPublic bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload PDF files for indexing",
	Long: `Uploads one or more PDF files and queues them for background
processing. Re-uploading an identical file is detected and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadPublic, "public", false, "make the document visible to all users (admin only)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ownerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	visibility := domain.VisibilityPrivate
	if uploadPublic {
		visibility = domain.VisibilityPublic
	}

	failed := 0
	for _, path := range args {
		if err := uploadOne(cmd, ownerID, path, visibility); err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func uploadOne(cmd *cobra.Command, ownerID, path string, visibility domain.Visibility) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := documentService.Upload(cmd.Context(), driving.UploadRequest{
		OwnerID:    ownerID,
		Filename:   filepath.Base(path),
		Visibility: visibility,
		Content:    f,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		cmd.Printf("  %s: already uploaded (%s)\n", path, doc.ID)
		return nil
	}
	if err != nil {
		return err
	}

	cmd.Printf("  %s: queued as %s\n", path, doc.ID)
	return nil
}
