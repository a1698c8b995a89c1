package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dineshlahiru/contactsync/internal/model"
)

var (
	historyInstitution string
	historyLimit       int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the sync log for an institution, newest first",
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

		inst, err := s.GetInstitution(ctx, historyInstitution)
		if err != nil {
			return err
		}

		logs, err := s.ListSyncLogs(ctx, inst.ID, historyLimit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Printf("no sync history for %s\n", inst.Name)
			return nil
		}

		fmt.Printf("sync history for %s:\n", inst.Name)
		for _, e := range logs {
			line := fmt.Sprintf("%s  %-7s  found=%d imported=%d divisions=%d changed=%v  $%.3f",
				e.SyncedAt.Format("2006-01-02 15:04"), e.Status,
				e.ContactsFound, e.ContactsImported, e.DivisionsCreated, e.ChangesDetected, e.CostUSD)
			if e.Status == model.SyncStatusFailed && e.ErrorMessage != "" {
				line += "  " + e.ErrorMessage
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyInstitution, "institution", "", "institution ID (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max entries")
	_ = historyCmd.MarkFlagRequired("institution")
	rootCmd.AddCommand(historyCmd)
}
