package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dineshlahiru/contactsync/internal/reconcile"
	"github.com/dineshlahiru/contactsync/internal/syncer"
)

var (
	syncInstitution       string
	syncURL               string
	syncYes               bool
	syncReplace           bool
	syncNoUpdate          bool
	syncNoCreateDivisions bool
)

func reconcileOptions() reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.ReplaceAllContacts = syncReplace
	if syncNoUpdate {
		opts.UpdateExistingContacts = false
	}
	if syncNoCreateDivisions {
		opts.CreateDivisionsAutomatically = false
	}
	return opts
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch, extract, preview, and import an institution's contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sync"); err != nil {
			return err
		}
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sy, err := initSyncer(s, syncer.WithProgress(func(p syncer.Progress) {
			if p.Error != "" {
				fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", p.Phase, p.CurrentStep, p.Error)
				return
			}
			fmt.Fprintf(os.Stderr, "[%s] %3d%% %s\n", p.Phase, p.Progress, p.CurrentStep)
		}))
		if err != nil {
			return err
		}

		run, err := sy.Begin(ctx, syncInstitution)
		if err != nil {
			return err
		}
		defer run.Release()

		pre, err := run.PreCheck(ctx, syncURL)
		if err != nil {
			return err
		}
		if !pre.Allowed {
			return eris.New(pre.Reason)
		}

		fe := run.FetchAndExtract(ctx)
		if !fe.Success {
			return eris.New(fe.Error)
		}

		preview, err := json.MarshalIndent(fe.Data, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode preview")
		}
		fmt.Println(string(preview))
		fmt.Printf("\ncontent hash: %s (changed: %v)  tokens: %d  cost: $%.3f\n",
			fe.ContentHash, fe.Changed, fe.InputTokens+fe.OutputTokens, fe.CostUSD)

		if !syncYes {
			fmt.Print("import these contacts? [y/N]: ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("aborted, nothing imported")
				return nil
			}
		}

		res, err := run.ImportContacts(ctx, reconcileOptions())
		if err != nil {
			return err
		}
		fmt.Printf("imported %d contacts (%d divisions created, %d skipped)\n",
			res.ContactsImported, res.DivisionsCreated, res.ContactsSkipped)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncInstitution, "institution", "", "institution ID (required)")
	syncCmd.Flags().StringVar(&syncURL, "url", "", "source URL (overrides stored settings)")
	syncCmd.Flags().BoolVar(&syncYes, "yes", false, "skip the import confirmation prompt")
	syncCmd.Flags().BoolVar(&syncReplace, "replace", false, "delete existing contacts before importing")
	syncCmd.Flags().BoolVar(&syncNoUpdate, "no-update", false, "insert all contacts instead of updating by email")
	syncCmd.Flags().BoolVar(&syncNoCreateDivisions, "no-create-divisions", false, "reuse existing divisions only")
	_ = syncCmd.MarkFlagRequired("institution")
	rootCmd.AddCommand(syncCmd)
}
