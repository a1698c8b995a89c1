package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshlahiru/contactsync/internal/model"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the current month's API spend against the budget",
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

		guard := initGuard(s)
		decision, err := guard.CheckAllowed(ctx)
		if err != nil {
			return err
		}

		monthKey := model.MonthKey(time.Now())
		usage, err := s.GetMonthlyUsage(ctx, monthKey)
		if err != nil {
			return err
		}

		fmt.Printf("month:   %s\n", monthKey)
		fmt.Printf("spend:   $%.3f of $%.2f (%d%%)\n",
			decision.Usage.UsedUSD, decision.Usage.LimitUSD, decision.Usage.PercentUsed)
		fmt.Printf("tokens:  %d across %d records\n", usage.TokensUsed, usage.Records)
		if decision.Allowed {
			fmt.Println("status:  syncs allowed")
		} else {
			fmt.Printf("status:  paused (%s)\n", decision.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
