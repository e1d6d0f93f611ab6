package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/ingest"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest documents into the vector database",
	Long: `Loads every PDF, Word and text document under the docs directory (or the
given directory), splits it into chunks, embeds the chunks and stores them.
By default files already ingested with the same content are skipped; use
--full to embed everything again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("full", false, "re-ingest every file, even unchanged ones")
	ingestCmd.Flags().Bool("strict", false, "abort on the first file that cannot be parsed")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	full, _ := cmd.Flags().GetBool("full")
	strict, _ := cmd.Flags().GetBool("strict")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}

	mode := ingest.Mode(a.cfg.IngestMode)
	if full {
		mode = ingest.ModeFull
	}

	pipeline := a.pipeline
	if strict {
		pipeline = a.newPipeline(true)
	}

	logger.Section("Ingesting " + dir)

	reporter := progress.NewReporter()
	pipeline.SetProgressFunc(progress.Func(reporter))

	result, err := pipeline.RunMode(ctx, dir, mode)
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("\nIngestion complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Files loaded:   %d\n", len(result.Loaded))
	fmt.Printf("  Files skipped:  %d (unchanged)\n", len(result.Skipped))
	fmt.Printf("  Files failed:   %d\n", len(result.Failed))
	fmt.Printf("  Chunks added:   %d\n", result.ChunksAdded)
	fmt.Printf("  Collection:     %s (%d chunks)\n", a.cfg.Collection, a.store.Count(a.cfg.Collection))

	if err := a.audit.Log(ctx, audit.Entry{
		Actor:   audit.ActorCLI,
		Action:  audit.ActionIngest,
		Summary: fmt.Sprintf("ingested %s (%s mode)", dir, mode),
		Files:   result.Loaded,
		Chunks:  result.ChunksAdded,
		Failed:  len(result.Failed),
	}); err != nil {
		logger.Warn("recording ingest: %v", err)
	}

	for _, f := range result.Failed {
		fmt.Printf("  ! %s: %s\n", f.Path, f.Error)
	}
	return nil
}
