package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dineshlahiru/contactsync/internal/model"
)

var (
	institutionURL       string
	institutionAutoSync  bool
	institutionFrequency string
)

var institutionCmd = &cobra.Command{
	Use:   "institution",
	Short: "Manage institutions",
}

var institutionAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register an institution, optionally with its source URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ctx := cmd.Context()
		name := args[0]

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		existing, err := s.GetInstitutionByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return eris.Errorf("institution %q already exists (%s)", name, existing.ID)
		}

		inst, err := s.CreateInstitution(ctx, name)
		if err != nil {
			return err
		}

		if institutionURL != "" || institutionAutoSync {
			frequency := model.SyncFrequency(institutionFrequency)
			if frequency == "" {
				frequency = model.SyncFrequency(cfg.Sync.DefaultFrequency)
			}
			err := s.UpsertSyncSettings(ctx, &model.SyncSettings{
				InstitutionID:   inst.ID,
				SourceURL:       institutionURL,
				AutoSyncEnabled: institutionAutoSync,
				SyncFrequency:   frequency,
			})
			if err != nil {
				return err
			}
		}

		fmt.Printf("created institution %s (%s)\n", inst.Name, inst.ID)
		return nil
	},
}

var institutionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List institutions with their sync settings",
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

		institutions, err := s.ListInstitutions(ctx)
		if err != nil {
			return err
		}
		if len(institutions) == 0 {
			fmt.Println("no institutions registered")
			return nil
		}

		for _, inst := range institutions {
			line := fmt.Sprintf("%s  %s", inst.ID, inst.Name)
			settings, err := s.GetSyncSettings(ctx, inst.ID)
			if err != nil {
				return err
			}
			if settings != nil {
				line += fmt.Sprintf("  url=%s auto=%v freq=%s", settings.SourceURL, settings.AutoSyncEnabled, settings.SyncFrequency)
				if settings.LastSyncedAt != nil {
					line += "  last=" + settings.LastSyncedAt.Format("2006-01-02")
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	institutionAddCmd.Flags().StringVar(&institutionURL, "url", "", "contact page URL")
	institutionAddCmd.Flags().BoolVar(&institutionAutoSync, "auto-sync", false, "enable scheduled syncs")
	institutionAddCmd.Flags().StringVar(&institutionFrequency, "frequency", "", "sync frequency: daily, weekly, monthly")
	institutionCmd.AddCommand(institutionAddCmd)
	institutionCmd.AddCommand(institutionListCmd)
	rootCmd.AddCommand(institutionCmd)
}
