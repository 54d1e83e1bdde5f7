package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/obligo/obligo/internal/cli"
	"github.com/obligo/obligo/internal/model"
)

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "anomalies",
		Aliases: []string{"anomaly"},
		Short:   "Review detected anomalies",
		Long: `List anomalies detected in recurring expenses: unusual amounts, missed
or mistimed payments, and suspected duplicate charges.`,
	}

	cmd.AddCommand(anomaliesListCmd())
	cmd.AddCommand(anomaliesAckCmd())

	return cmd
}

func anomaliesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open anomalies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			var anomalies []model.Anomaly
			if all {
				anomalies, err = store.GetAllAnomalies(ctx)
			} else {
				anomalies, err = store.GetUnacknowledgedAnomalies(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get anomalies: %w", err)
			}

			if len(anomalies) == 0 {
				fmt.Println(cli.FormatSuccess("No open anomalies"))
				return nil
			}

			// Resolve pattern IDs to merchant names for display.
			patterns, err := store.GetAllPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}
			names := make(map[int64]string, len(patterns))
			for _, p := range patterns {
				names[p.ID] = p.DisplayName
			}

			fmt.Println(cli.RenderAnomalies(anomalies, names))
			return nil
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Include acknowledged anomalies")
	return cmd
}

func anomaliesAckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an anomaly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid anomaly ID: %s", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.AcknowledgeAnomaly(ctx, id); err != nil {
				return fmt.Errorf("failed to acknowledge anomaly %d: %w", id, err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Anomaly %d acknowledged", id)))
			return nil
		},
	}
}
