package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/obligo/obligo/internal/cli"
	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/forecast"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast cash to reserve for upcoming bills",
		Long: `Project which tracked recurring expenses fall due within the horizon and
compute how much of your checking balance is truly available after
reserving for them.`,
		RunE: runForecast,
	}

	cmd.Flags().StringP("balance", "b", "", "Current checking balance (required)")
	cmd.Flags().IntP("horizon", "n", forecast.DefaultHorizonDays, "Forecast horizon in days")
	_ = cmd.MarkFlagRequired("balance")

	return cmd
}

func runForecast(cmd *cobra.Command, _ []string) error {
	rawBalance, _ := cmd.Flags().GetString("balance")
	horizon, _ := cmd.Flags().GetInt("horizon")
	ctx := cmd.Context()

	balance, err := decimal.NewFromString(rawBalance)
	if err != nil {
		return common.NewUserError(err, fmt.Sprintf("invalid balance %q, expected a number like 4500.00", rawBalance))
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	reservation, err := forecast.New(store).Snapshot(ctx, balance, horizon)
	if err != nil {
		return fmt.Errorf("failed to build forecast: %w", err)
	}

	fmt.Println(cli.RenderReservation(reservation))
	return nil
}
