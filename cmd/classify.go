package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtally/internal/config"
	"github.com/teemow/inboxtally/internal/report"
)

func newClassifyCmd() *cobra.Command {
	var (
		overrides flagOverrides
		chartPath string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify recent Gmail messages and print a tally chart",
		Long: `Fetch the most recent Gmail messages, classify each one by subject and
sender with the local Ollama model and print how many fell into each category.

Answers are cached in Redis keyed by the prompt, so re-running over the same
messages does not call the model again until the entries expire.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, overrides)
			if err != nil {
				return err
			}
			return runClassify(cmd, cfg, chartPath)
		},
	}

	cmd.Flags().Int64Var(&overrides.maxResults, "max-results", config.DefaultMaxResults, fmt.Sprintf("Number of recent messages to classify (1-%d)", config.MaxResultsLimit))
	cmd.Flags().StringVar(&overrides.account, "account", config.DefaultAccount, "Google account name to use")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Also write an HTML pie chart to this file")

	return cmd
}

func runClassify(cmd *cobra.Command, cfg *config.Config, chartPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	batch, err := runBatch(ctx, out, a.logger, a.mail, a.classifier, cfg.Gmail.MaxResults)
	if batch == nil {
		return err
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintf(out, "Interrupted, showing %d classified messages.\n", len(batch.Results))
	}

	fmt.Fprintln(out)
	if err := report.WriteText(out, batch.Tally); err != nil {
		return fmt.Errorf("failed to print chart: %w", err)
	}

	if chartPath != "" {
		if err := writeChart(chartPath, batch.Tally); err != nil {
			return err
		}
		fmt.Fprintf(out, "Chart written to %s\n", chartPath)
	}

	return nil
}
