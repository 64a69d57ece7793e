package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"etymon/internal/gamification"
	"etymon/internal/store"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show a user's gamification state",
		Args:  cobra.ExactArgs(1),
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

			user, err := db.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no stats recorded for user %q", args[0])
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, user)
			}

			level := gamification.Level(user.XP)
			rows := [][]string{
				{"XP", strconv.FormatInt(user.XP, 10)},
				{"Level", fmt.Sprintf("%d (next at %d xp)", level, gamification.NextLevelXP(user.XP))},
				{"Streak", strconv.FormatInt(user.CurrentStreak, 10)},
				{"Words discovered", strconv.FormatInt(user.WordsDiscovered, 10)},
				{"Summaries", strconv.FormatInt(user.SummariesGenerated, 10)},
				{"Images", strconv.FormatInt(user.ImagesGenerated, 10)},
				{"Shares", strconv.FormatInt(user.Shares, 10)},
				{"Badges", strings.Join(user.Badges, ", ")},
			}
			if !user.LastVisitAt.IsZero() {
				rows = append(rows, []string{"Last visit", user.LastVisitAt.Format(time.RFC3339)})
			}

			name := user.Name
			if name == "" {
				name = user.UserID
			}
			fmt.Fprintf(out, "Stats for %s\n", name)
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print stats as JSON")
	return cmd
}
