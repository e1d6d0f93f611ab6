package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your private documents",
	Long: `DocChat ingests PDF, Word and text documents into a local vector
database and answers questions about them with an LLM, citing the
passages it used. It runs as an HTTP server with a chat dashboard, as a
one-shot CLI, or as an MCP server for AI agents.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// API keys may live in a .env file next to the config.
		_ = godotenv.Load()
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
