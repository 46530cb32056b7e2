package cli

import (
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"assistant/internal/adapter/fs"
	"assistant/internal/adapter/kb"
	"assistant/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [docs-dir]",
	Short: "Build the knowledge-base snapshot from source documents",
	Long: `Walk the documents directory, chunk and embed every matching file
and write the embedding snapshot the server loads at startup.

Examples:
  assistant ingest              # Use the configured docs directory
  assistant ingest ./content    # Ingest a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	docsDir := cfg.Ingest.DocsDir
	if len(args) > 0 {
		docsDir = args[0]
	}
	docsDir, err := filepath.Abs(docsDir)
	if err != nil {
		return fmt.Errorf("invalid docs directory: %w", err)
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	paths, err := walker.Walk(docsDir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", docsDir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents matched in %s", docsDir)
	}

	docs, err := usecase.LoadDocs(docsDir, paths)
	if err != nil {
		return fmt.Errorf("failed to read documents: %w", err)
	}
	fmt.Printf("Ingesting %d documents from %s...\n", len(docs), docsDir)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	ingest := usecase.NewIngestUseCase(embedder, cfg.Ingest.ChunkTokens, cfg.Ingest.ChunkOverlap)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	snap, err := ingest.Run(cmd.Context(), docs, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if err := kb.Write(cfg.Ingest.Snapshot, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	fmt.Printf("Wrote %d chunks (model %s, dim %d) to %s\n",
		len(snap.Chunks), snap.Model, snap.Dim, cfg.Ingest.Snapshot)
	return nil
}
