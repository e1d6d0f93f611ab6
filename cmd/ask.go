package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/document"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Answers a question from the ingested documents and lists the sources used.
With a persistent history backend (sqlite or bolt), repeated calls with the
same --session continue one conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("session", conversation.DefaultSession, "conversation session id")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	askCmd.Flags().Bool("clear", false, "clear the session history before asking")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Answer    string              `json:"answer"`
	Sources   []document.Metadata `json:"sources"`
	SessionID string              `json:"session_id"`
	Cost      float64             `json:"estimated_cost_usd"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	clear, _ := cmd.Flags().GetBool("clear")

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Count(a.cfg.Collection) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: the collection is empty. Run `docchat ingest` first.")
	}

	if clear {
		if err := a.chat.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
	}

	answer, err := a.chat.Ask(ctx, sessionID, question)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(askOutput{
			Answer:    answer.Text,
			Sources:   answer.Sources,
			SessionID: conversation.SessionOrDefault(sessionID),
			Cost:      answer.Usage.Cost,
		})
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		seen := make(map[string]bool)
		for _, src := range answer.Sources {
			label := src.Source
			if src.Page > 0 {
				label = fmt.Sprintf("%s (page %d)", src.Source, src.Page)
			}
			if seen[label] {
				continue
			}
			seen[label] = true
			fmt.Printf("  - %s\n", label)
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "\n%d input / %d output tokens, ~$%.5f\n",
			answer.Usage.InputTokens, answer.Usage.OutputTokens, answer.Usage.Cost)
	}
	return nil
}
