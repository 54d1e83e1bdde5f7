package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/obligo/obligo/internal/cli"
	"github.com/obligo/obligo/internal/model"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Manage detected recurring expense patterns",
		Long: `List detected recurring expenses and record corrections: confirm a
pattern as genuinely recurring, exclude a false positive, or control
whether it counts toward the cash reservation forecast.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsFlagCmd("confirm", "Mark a pattern as confirmed recurring"))
	cmd.AddCommand(patternsFlagCmd("exclude", "Mark a pattern as not actually recurring"))
	cmd.AddCommand(patternsFlagCmd("track", "Include a pattern in the cash forecast"))
	cmd.AddCommand(patternsFlagCmd("untrack", "Exclude a pattern from the cash forecast"))

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring expense patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			var patterns []model.RecurringPattern
			if all {
				patterns, err = store.GetAllPatterns(ctx)
			} else {
				patterns, err = store.GetTrackedPatterns(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}

			if len(patterns) == 0 {
				fmt.Println(cli.FormatWarning("No recurring patterns found, run `obligo detect` first"))
				return nil
			}

			fmt.Println(cli.RenderPatterns(patterns))
			return nil
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Include excluded and untracked patterns")
	return cmd
}

// patternsFlagCmd builds the confirm/exclude/track/untrack subcommands,
// which differ only in which flags they flip.
func patternsFlagCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <merchant-key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			pattern, err := store.GetPatternByKey(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to look up pattern: %w", err)
			}
			if pattern == nil {
				return fmt.Errorf("no pattern found for merchant key %q", key)
			}

			confirmed := pattern.UserConfirmed
			excluded := pattern.UserExcluded
			tracked := pattern.Tracked
			switch verb {
			case "confirm":
				confirmed = true
				excluded = false
			case "exclude":
				excluded = true
				confirmed = false
			case "track":
				tracked = true
			case "untrack":
				tracked = false
			}

			if err := store.SetPatternFlags(ctx, key, confirmed, excluded, tracked); err != nil {
				return fmt.Errorf("failed to update pattern: %w", err)
			}

			// Confirm and exclude also persist a merchant override so the
			// decision survives future detection runs.
			if verb == "confirm" || verb == "exclude" {
				now := time.Now()
				override := &model.MerchantOverride{
					MerchantKey: key,
					IsRecurring: verb == "confirm",
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := store.SaveOverride(ctx, override); err != nil {
					return fmt.Errorf("failed to save merchant override: %w", err)
				}
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pattern %q updated (%s)", key, verb)))
			return nil
		},
	}
}
