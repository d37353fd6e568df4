package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage uploaded documents",
	Long:    `List, inspect, publish, reprocess or delete uploaded documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents visible to you",
	RunE:  runDocumentsList,
}

var documentsStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show one document's processing state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsStatus,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index data",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsPublishCmd = &cobra.Command{
	Use:   "publish [doc-id]",
	Short: "Make a document visible to all users (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsPublish,
}

var documentsUnpublishCmd = &cobra.Command{
	Use:   "unpublish [doc-id]",
	Short: "Make a document private again",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsUnpublish,
}

var documentsReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Re-run extraction and indexing for a document",
	Long:  `Re-runs the processing pipeline. Existing chunks are replaced, never duplicated.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsReprocess,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsStatusCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsPublishCmd)
	documentsCmd.AddCommand(documentsUnpublishCmd)
	documentsCmd.AddCommand(documentsReprocessCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	docs, err := documentService.List(ctx, callerID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("  %s\n", doc.ID)
		cmd.Printf("    File:       %s\n", doc.Filename)
		cmd.Printf("    Status:     %s\n", doc.Status)
		cmd.Printf("    Visibility: %s\n", doc.Visibility)
		if doc.Status == domain.StatusCompleted {
			cmd.Printf("    Pages:      %d  Chunks: %d\n", doc.PageCount, doc.ChunkCount)
		}
		if doc.Status == domain.StatusFailed && doc.ProcessingError != "" {
			cmd.Printf("    Error:      %s\n", doc.ProcessingError)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	doc, err := documentService.Get(ctx, callerID, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:       %s\n", doc.Filename)
	cmd.Printf("  Status:     %s\n", doc.Status)
	cmd.Printf("  Visibility: %s\n", doc.Visibility)
	cmd.Printf("  Size:       %d bytes\n", doc.FileSize)
	cmd.Printf("  Pages:      %d\n", doc.PageCount)
	cmd.Printf("  Chunks:     %d\n", doc.ChunkCount)
	cmd.Printf("  Uploaded:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessingError != "" {
		cmd.Printf("  Error:      %s\n", doc.ProcessingError)
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	if err := documentService.Delete(ctx, callerID, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentsPublish(cmd *cobra.Command, args []string) error {
	return setVisibility(cmd, args[0], domain.VisibilityPublic)
}

func runDocumentsUnpublish(cmd *cobra.Command, args []string) error {
	return setVisibility(cmd, args[0], domain.VisibilityPrivate)
}

func setVisibility(cmd *cobra.Command, docID string, v domain.Visibility) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	if err := documentService.SetVisibility(ctx, callerID, docID, v); err != nil {
		return fmt.Errorf("failed to change visibility: %w", err)
	}

	cmd.Printf("Document %s is now %s.\n", docID, v)
	return nil
}

func runDocumentsReprocess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	if err := documentService.Reprocess(ctx, callerID, args[0]); err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	cmd.Printf("Document %s queued for reprocessing.\n", args[0])
	return nil
}
