package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantically search the ingested documents",
	Long:  `Embeds the query and prints the closest chunks without calling the LLM.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().String("source", "", "only return chunks from this source path")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	source, _ := cmd.Flags().GetString("source")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Count(a.cfg.Collection) == 0 {
		fmt.Println("Vector store is empty. Run `docchat ingest` first.")
		return nil
	}

	var filter *vectordb.SearchFilter
	if source != "" {
		filter = &vectordb.SearchFilter{Source: &source}
	}

	vec, err := embeddings.EmbedOne(ctx, a.embedder, queryText)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	results, err := a.store.Search(ctx, a.cfg.Collection, vec, limit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Print(vectordb.FormatResults(results))
	return nil
}
