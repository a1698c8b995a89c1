package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contact-sync",
	Short: "Contact directory sync for Sri Lankan institutions",
	Long:  "Fetches institution contact pages, extracts structured contacts via Claude, and reconciles them into a persistent directory with budget controls and a full audit log.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
