package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/dashboard"
	"github.com/ziadkadry99/docchat/internal/server"
)

var (
	serverPort     int
	serverAllowAll bool
	serverNoIngest bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the document chat HTTP server",
	Long: `Starts the docchat HTTP server with the upload, ask and clear endpoints and
the browser chat dashboard. Documents already in the docs directory are
ingested before the server starts listening.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !serverNoIngest {
			if _, err := os.Stat(a.cfg.DocsDir); err == nil {
				if _, err := a.pipeline.Run(ctx, a.cfg.DocsDir); err != nil {
					return fmt.Errorf("initial ingestion: %w", err)
				}
			}
		}

		srv := server.New(server.Config{
			Port:      port,
			DocsDir:   a.cfg.DocsDir,
			UploadDir: a.cfg.UploadDir,
			AllowAll:  serverAllowAll,
		}, a.chat, a.pipeline, a.store)
		srv.EnableAudit(a.audit)

		dash := dashboard.New(a.chat)
		dash.SetAudit(a.audit)
		dash.RegisterRoutes(srv.Router())

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "docchat server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Documents: %s\n", a.cfg.DocsDir)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.cfg.DatabasePath())
		fmt.Fprintf(os.Stderr, "  History: %s\n", a.cfg.HistoryBackend)
		fmt.Fprintf(os.Stderr, "  Chunks indexed: %d\n", a.store.Count(a.cfg.Collection))

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 5000, "port to listen on (overrides config)")
	serverCmd.Flags().BoolVar(&serverAllowAll, "cors-allow-all", false, "allow requests from any origin")
	serverCmd.Flags().BoolVar(&serverNoIngest, "no-ingest", false, "skip ingesting the docs directory at startup")
	rootCmd.AddCommand(serverCmd)
}
