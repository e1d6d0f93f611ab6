package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docchat/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document search and question answering tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.store.Count(a.cfg.Collection) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: collection %s is empty. Run `docchat ingest` first.\n", a.cfg.Collection)
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "docchat MCP server started on stdio (collection=%s, chunks=%d)\n",
			a.cfg.Collection, a.store.Count(a.cfg.Collection))

		srv := mcpserver.NewServer(a.store, a.embedder, a.cfg.Collection, a.chat)
		srv.SetAudit(a.audit)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
