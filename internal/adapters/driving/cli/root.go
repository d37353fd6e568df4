// Package cli implements the pdfrag command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/pdfrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/extract"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/filestore/disk"
	llmollama "github.com/custodia-labs/pdfrag/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pdfrag/internal/adapters/driven/vector/chroma"
	vectormem "github.com/custodia-labs/pdfrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
	"github.com/custodia-labs/pdfrag/internal/core/services"
	"github.com/custodia-labs/pdfrag/internal/logger"
	"github.com/custodia-labs/pdfrag/internal/textproc"
)

// version is stamped at build time via -ldflags.
var version = "0.1.0"

// Persistent flags.
var (
	cfgPath string
	verbose bool
	actAs   string
)

// Wired services, set by initApp before any command runs.
var (
	appConfig       configfile.Config
	store           *sqlite.Store
	vectorIndex     driven.VectorIndex
	embedder        driven.EmbeddingService
	llmService      driven.LLMService
	documentService driving.DocumentService
	questionService driving.QuestionService
	userService     driving.UserService
	statsService    driving.StatsService
	ingestService   *services.IngestService
)

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Question answering over your PDF documents",
	Long: `pdfrag indexes PDF documents and answers natural-language questions
about their content using local embedding and language models.

Documents are private to their uploader unless published by an admin.
All commands act as the user given by --user (default: admin).`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRun: shutdown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.pdfrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&actAs, "user", "u", "admin", "username to act as")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// skipWiring lists commands that run without the full service stack.
func skipWiring(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return true
	}
	return false
}

// initApp wires adapters and services from the configuration.
func initApp(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if skipWiring(cmd) {
		return nil
	}
	// Already wired, either by a previous run or by test injection.
	if questionService != nil {
		return nil
	}

	var err error
	appConfig, err = configfile.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err = sqlite.NewStore(appConfig.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	logger.Debug("Metadata store: %s", store.Path())

	fileStore, err := disk.NewStore(uploadsDir(appConfig))
	if err != nil {
		return fmt.Errorf("opening file store: %w", err)
	}

	embedder, err = buildEmbedder(appConfig)
	if err != nil {
		return err
	}

	llmService = llmollama.NewLLMService(llmollama.Config{
		BaseURL: appConfig.LLM.BaseURL,
		Model:   appConfig.LLM.Model,
	})

	ctx := cmd.Context()
	vectorIndex, err = buildVectorIndex(ctx, appConfig)
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor()

	docStore := store.DocumentStore()
	userStore := store.UserStore()
	queryLog := store.QueryLogStore()

	userService = services.NewUserService(userStore)

	ingestService = services.NewIngestService(
		docStore, userStore, fileStore, extractor, embedder, vectorIndex,
		appConfig.Ingest.Workers,
		services.WithSplitter(buildSplitter(appConfig)),
		services.WithEmbedRateLimit(appConfig.Ingest.EmbedRate),
	)
	documentService = ingestService

	access := services.NewAccessControl(userStore, docStore)
	retriever := services.NewRetriever(vectorIndex, embedder)
	ranker := services.NewRanker(
		services.WithBlendWeights(appConfig.Retrieval.DistanceWeight, appConfig.Retrieval.OverlapWeight),
		services.WithDistanceCutoff(appConfig.Retrieval.DistanceCutoff),
	)
	questionService = services.NewQueryService(
		access, retriever, ranker, docStore, llmService, queryLog,
		services.WithContextBudget(appConfig.Retrieval.ContextLength),
		services.WithGenerateOptions(driven.GenerateOptions{
			Temperature:   appConfig.LLM.Temperature,
			MaxTokens:     appConfig.LLM.MaxTokens,
			ContextWindow: appConfig.LLM.ContextWindow,
		}),
	)
	statsService = services.NewStatsService(docStore, queryLog)

	if err := bootstrapAdmin(ctx); err != nil {
		return err
	}

	if appConfig.Vector.Provider == "memory" {
		if err := reindexMemory(ctx, docStore); err != nil {
			return fmt.Errorf("rebuilding vector index: %w", err)
		}
	}

	return nil
}

// shutdown releases resources in reverse wiring order.
func shutdown(_ *cobra.Command, _ []string) {
	if ingestService != nil {
		ingestService.Close()
	}
	if vectorIndex != nil {
		vectorIndex.Close() //nolint:errcheck
	}
	if llmService != nil {
		llmService.Close() //nolint:errcheck
	}
	if embedder != nil {
		embedder.Close() //nolint:errcheck
	}
	if store != nil {
		store.Close() //nolint:errcheck
	}
}

func uploadsDir(cfg configfile.Config) string {
	if cfg.Storage.DataDir == "" {
		return "" // disk store falls back to its own default
	}
	return filepath.Join(cfg.Storage.DataDir, "uploads")
}

func buildEmbedder(cfg configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildVectorIndex(ctx context.Context, cfg configfile.Config) (driven.VectorIndex, error) {
	switch cfg.Vector.Provider {
	case "", "chroma":
		idx, err := chroma.NewIndex(ctx, chroma.Config{
			BaseURL:    cfg.Vector.BaseURL,
			Collection: cfg.Vector.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to chroma: %w", err)
		}
		return idx, nil
	case "memory":
		return vectormem.New(), nil
	default:
		return nil, fmt.Errorf("unknown vector provider %q", cfg.Vector.Provider)
	}
}

func buildSplitter(cfg configfile.Config) *textproc.Splitter {
	return textproc.NewSplitter(
		textproc.WithChunkSize(cfg.Chunking.Size),
		textproc.WithOverlap(cfg.Chunking.Overlap),
		textproc.WithMinChunkLength(cfg.Chunking.MinLength),
	)
}

// bootstrapAdmin creates the default admin account on first run.
func bootstrapAdmin(ctx context.Context) error {
	users, err := userService.List(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	password := os.Getenv("PDFRAG_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		logger.Warn("Created default admin account with a well-known password; change it or set PDFRAG_ADMIN_PASSWORD")
	}

	if _, err := userService.Create(ctx, "admin", "admin@localhost", password, domain.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}
	logger.Info("Bootstrapped admin account")
	return nil
}

// reindexMemory reloads stored chunk embeddings into the in-memory
// vector index, which starts empty on every run.
func reindexMemory(ctx context.Context, docStore driven.DocumentStore) error {
	docs, err := docStore.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if doc.Status != domain.StatusCompleted {
			continue
		}
		chunks, err := docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return err
		}
		entries := make([]driven.VectorEntry, 0, len(chunks))
		for _, c := range chunks {
			if len(c.Embedding) == 0 {
				continue
			}
			entries = append(entries, driven.VectorEntry{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Embedding:  c.Embedding,
			})
		}
		if err := vectorIndex.Add(ctx, entries); err != nil {
			return err
		}
	}
	return nil
}

// resolveUserID maps the --user flag to an account ID.
func resolveUserID(ctx context.Context) (string, error) {
	if store == nil {
		// Services were injected directly; treat the flag as the ID.
		return actAs, nil
	}
	user, err := store.UserStore().GetUserByUsername(ctx, actAs)
	if err != nil {
		return "", fmt.Errorf("unknown user %q (create it with: pdfrag users add %s): %w", actAs, actAs, err)
	}
	return user.ID, nil
}
