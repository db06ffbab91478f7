package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtally/internal/config"
	"github.com/teemow/inboxtally/internal/logging"
	"github.com/teemow/inboxtally/internal/report"
	"github.com/teemow/inboxtally/internal/server"
)

// DefaultWatchInterval is the pause between two watch batches.
const DefaultWatchInterval = 15 * time.Minute

func newWatchCmd() *cobra.Command {
	var (
		overrides   flagOverrides
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Classify recent messages periodically and expose metrics",
		Long: `Run the classify batch on a fixed interval until interrupted.

Each batch prints its tally chart. When --metrics-addr is set, Prometheus
metrics are served on /metrics together with /healthz, /readyz and
/healthz/detailed. A batch never starts before the previous one finished.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			if addr := os.Getenv("METRICS_ADDR"); addr != "" && !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = addr
			}

			cfg, err := loadConfig(cmd, overrides)
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg, interval, metricsAddr)
		},
	}

	cmd.Flags().Int64Var(&overrides.maxResults, "max-results", config.DefaultMaxResults, fmt.Sprintf("Number of recent messages to classify per batch (1-%d)", config.MaxResultsLimit))
	cmd.Flags().StringVar(&overrides.account, "account", config.DefaultAccount, "Google account name to use")
	cmd.Flags().DurationVar(&interval, "interval", DefaultWatchInterval, "Time between batches")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address, empty to disable. Can also use METRICS_ADDR env var.")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, interval time.Duration, metricsAddr string) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()

	a, err := newApp(shutdownCtx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	health := server.NewHealthChecker()

	if metricsAddr != "" && a.instr.Enabled() && a.instr.HasPrometheus() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: a.instr,
			Health:                  health,
			Logger:                  a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		ln, err := metricsServer.Listen()
		if err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				a.logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
		fmt.Fprintf(out, "Serving metrics on http://%s/metrics\n", metricsServer.Addr())
	} else if metricsAddr != "" {
		a.logger.Warn("metrics server disabled, Prometheus exporter is not active",
			"metrics_exporter", os.Getenv("METRICS_EXPORTER"))
	}

	return watchLoop(shutdownCtx, interval, health, func(ctx context.Context) error {
		batch, err := runBatch(ctx, out, a.logger, a.mail, a.classifier, cfg.Gmail.MaxResults)
		if batch != nil {
			fmt.Fprintln(out)
			if werr := report.WriteText(out, batch.Tally); werr != nil {
				return fmt.Errorf("failed to print chart: %w", werr)
			}
		}
		return err
	})
}

// watchLoop runs batch immediately and then once per interval until ctx is
// done. Batches run on the calling goroutine so they never overlap; ticks
// that fire during a long batch are dropped. A failed batch is recorded on
// health and the loop keeps going.
func watchLoop(ctx context.Context, interval time.Duration, health *server.HealthChecker, batch func(ctx context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := batch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		health.RecordBatch(err)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
