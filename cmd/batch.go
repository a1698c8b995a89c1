package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dineshlahiru/contactsync/internal/budget"
	"github.com/dineshlahiru/contactsync/internal/reconcile"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a full unattended sync for every due institution",
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

		sy, err := initSyncer(s)
		if err != nil {
			return err
		}

		due, err := sy.DueInstitutions(ctx, time.Now())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("no institutions due for sync")
			return nil
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Sync.Concurrency
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var succeeded, failed int
		results := make(chan bool, len(due))

		for _, inst := range due {
			g.Go(func() error {
				summary, err := sy.FullSync(gctx, inst.ID, "", reconcile.DefaultOptions())
				if err != nil {
					// Budget exhaustion stops the whole batch; anything else
					// is one institution's problem.
					var exceeded *budget.ExceededError
					if errors.As(err, &exceeded) {
						return err
					}
					zap.L().Error("batch: sync failed",
						zap.String("institution_id", inst.ID),
						zap.String("institution", inst.Name),
						zap.Error(err),
					)
					results <- false
					return nil
				}
				if !summary.Success {
					zap.L().Warn("batch: sync did not complete",
						zap.String("institution", inst.Name),
						zap.String("error", summary.Error),
					)
					results <- false
					return nil
				}
				zap.L().Info("batch: sync complete",
					zap.String("institution", inst.Name),
					zap.Int("contacts_imported", summary.ContactsImported),
					zap.Bool("changed", summary.Changed),
					zap.Float64("cost_usd", summary.CostUSD),
				)
				results <- true
				return nil
			})
		}

		err = g.Wait()
		close(results)
		for ok := range results {
			if ok {
				succeeded++
			} else {
				failed++
			}
		}
		fmt.Printf("batch complete: %d succeeded, %d failed, %d due\n", succeeded, failed, len(due))
		return err
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent syncs (default from config)")
	rootCmd.AddCommand(batchCmd)
}
