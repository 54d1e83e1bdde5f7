package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/obligo/obligo/internal/cli"
	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/detect"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect recurring expense patterns",
		Long: `Analyze all imported expense transactions, group them by merchant, and
detect recurring patterns like rent, subscriptions, and utility bills.

Each run re-derives statistics from scratch, so running detect twice on
the same data produces the same patterns. User confirmations and
exclusions survive re-runs.`,
		RunE: runDetect,
	}

	cmd.Flags().BoolP("quiet", "q", false, "Suppress the pattern table, print the summary only")

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	engine := detect.New(store, detect.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Analyzing merchants...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}
		_ = bar.Set(done)
	}))

	report, err := engine.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if errors.Is(err, common.ErrNoTransactions) {
			fmt.Println(cli.FormatWarning("No expense transactions found, run `obligo import` first"))
			return nil
		}
		return fmt.Errorf("detection failed: %w", err)
	}

	fmt.Println(cli.RenderDetectionSummary(&report.Summary))
	if !quiet && len(report.Patterns) > 0 {
		fmt.Println(cli.RenderPatterns(report.Patterns))
	}

	return nil
}
