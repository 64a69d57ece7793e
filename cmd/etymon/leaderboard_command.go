package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"etymon/internal/leaderboard"
	"etymon/internal/store"
)

func newLeaderboardCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var size int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top users by experience",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer db.Close()

			if size <= 0 {
				size = cfg.Gamification.LeaderboardSize
			}
			view, err := leaderboard.New(db, size)
			if err != nil {
				return err
			}
			entries, err := view.Top(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No users yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				name := entry.Name
				if name == "" {
					name = entry.UserID
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.Rank, 10),
					name,
					strconv.FormatInt(entry.XP, 10),
					strconv.FormatInt(entry.Level, 10),
					strconv.Itoa(entry.BadgeCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Rank", "User", "XP", "Level", "Badges"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	cmd.Flags().IntVarP(&size, "limit", "n", 0, "Maximum entries to show")
	return cmd
}
