package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"etymon/internal/history"
	"etymon/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved lookup history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func openHistory(ctx *commandContext) (*history.Store, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	hist, err := history.New(db, cfg.Gamification.HistoryCap, nil)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return hist, func() { _ = db.Close() }, nil
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's saved lookups, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, closeStore, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			items, err := hist.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No history")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.Word,
					item.CreatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Word", "Saved"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <user-id>",
		Short: "Delete a user's entire history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, closeStore, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := hist.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared history for %s\n", args[0])
			return nil
		},
	}
}
