// internal/cli/serve.go
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	analyzer "github.com/kamisoel/gait-analyzer"
	"github.com/kamisoel/gait-analyzer/internal/server"
	"github.com/kamisoel/gait-analyzer/internal/store"
	"github.com/kamisoel/gait-analyzer/pkg/estimate"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP server",
	Long: `Run the HTTP server: accept video uploads, run analyses in the
background and serve results and figures.

Examples:
  gait-analyzer serve
  gait-analyzer serve --listen :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	est := estimate.NewExecEstimator(
		cfg.Estimator.Command,
		cfg.Estimator.Args,
		time.Duration(cfg.Estimator.Timeout),
	)
	a := analyzer.New(est, analyzer.DefaultOptions())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, st, a).Run(ctx)
}
