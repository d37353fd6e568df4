package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

var (
	askTopK    int
	askMMR     bool
	askJSON    bool
	searchTopK int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant chunks from your indexed documents and
generates an answer with cited sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve matching chunks without generating an answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default 10)")
	askCmd.Flags().BoolVar(&askMMR, "mmr", false, "diversify retrieval with maximal marginal relevance")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of chunks (default 10)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
}

// askOptions merges command flags with configured retrieval defaults.
func askOptions(topK int, mmr bool) domain.AskOptions {
	opts := domain.AskOptions{
		TopK:              topK,
		UseMMR:            mmr || appConfig.Retrieval.UseMMR,
		MMRLambda:         appConfig.Retrieval.MMRLambda,
		KeywordExpansion:  appConfig.Retrieval.KeywordExpansion,
		SemanticExpansion: appConfig.Retrieval.SemanticExpansion,
	}
	if opts.TopK <= 0 {
		opts.TopK = appConfig.Retrieval.TopK
	}
	return opts
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	opts := askOptions(askTopK, askMMR)

	answer, err := questionService.Ask(ctx, callerID, question, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s, page %d (%.2f)\n", i+1, src.Filename, src.Page, src.Relevance)
		}
	}
	cmd.Printf("\nConfidence: %.2f  Time: %.1fs\n", answer.Confidence, answer.Duration.Seconds())
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	callerID, err := resolveUserID(ctx)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	opts := askOptions(searchTopK, false)

	candidates, err := questionService.Search(ctx, callerID, question, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(candidates) == 0 {
		cmd.Println("No matching chunks found.")
		return nil
	}

	for i := range candidates {
		content := candidates[i].Chunk.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		cmd.Printf("  [%d] doc %s page %d  distance=%.3f  via %s\n",
			i+1, candidates[i].Chunk.DocumentID, candidates[i].Chunk.Page,
			candidates[i].Distance, candidates[i].Strategy)
		cmd.Printf("      %s\n\n", content)
	}
	return nil
}
