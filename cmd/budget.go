package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dineshlahiru/contactsync/internal/model"
)

var (
	budgetLimit            float64
	budgetAlertThreshold   int
	budgetPauseOnExhausted bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the monthly budget settings",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the monthly spend limit and alerting",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		settings := model.BudgetSettings{
			MonthlyLimitUSD:       budgetLimit,
			AlertThresholdPercent: budgetAlertThreshold,
			PauseOnExhausted:      budgetPauseOnExhausted,
		}
		if err := s.SetBudgetSettings(ctx, settings); err != nil {
			return err
		}
		fmt.Printf("budget set: $%.2f/month, alert at %d%%, pause on exhausted: %v\n",
			settings.MonthlyLimitUSD, settings.AlertThresholdPercent, settings.PauseOnExhausted)
		return nil
	},
}

func init() {
	budgetSetCmd.Flags().Float64Var(&budgetLimit, "limit", 5.00, "monthly limit in USD")
	budgetSetCmd.Flags().IntVar(&budgetAlertThreshold, "alert-threshold", 80, "alert threshold percent")
	budgetSetCmd.Flags().BoolVar(&budgetPauseOnExhausted, "pause-on-exhausted", true, "pause syncs when the limit is reached")
	budgetCmd.AddCommand(budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}
