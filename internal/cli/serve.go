package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"kbsearch/internal/adapter/httpapi"
)

var (
	serveAddr string
	serveWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the retrieval operations over HTTP",
	Long: `Serve list, search and code retrieval as JSON endpoints:

  GET  /api/items
  POST /api/search   {"problem_text": "..."}
  GET  /api/code?path=...
  GET  /healthz

Examples:
  kbsearch serve
  kbsearch serve --addr :8080 --warm`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "build the index before accepting requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if serveWarm {
		if err := warm(svc, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("index build failed: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := httpapi.NewAPI(svc, slog.Default())
	slog.Info("listening", "addr", addr, "root", cfg.Corpus.Root)
	return httpapi.Run(ctx, addr, api.Handler())
}
