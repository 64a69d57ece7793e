// Package leaderboard projects persisted user stats into a ranked view.
// Ranks are 1-based competition ranks: users with equal experience share
// a rank and the next distinct score resumes at its list position, so
// two users tied at the top leave the third user at rank 3.
package leaderboard

import (
	"context"
	"errors"
	"sort"

	"etymon/internal/gamification"
	"etymon/internal/store"
)

// DefaultSize caps the view when no size is configured.
const DefaultSize = 50

// Entry is one ranked row.
type Entry struct {
	Rank       int64  `json:"rank"`
	UserID     string `json:"userId"`
	Name       string `json:"name,omitempty"`
	PhotoURL   string `json:"photoUrl,omitempty"`
	XP         int64  `json:"xp"`
	Level      int64  `json:"level"`
	BadgeCount int    `json:"badgeCount"`
}

// View computes leaderboards from the store on demand.
type View struct {
	db   *store.Store
	size int
}

// New builds a leaderboard view returning at most size entries (0 uses
// DefaultSize).
func New(db *store.Store, size int) (*View, error) {
	if db == nil {
		return nil, errors.New("leaderboard: store required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &View{db: db, size: size}, nil
}

// Top returns the ranked leaderboard, highest experience first.
func (v *View) Top(ctx context.Context) ([]Entry, error) {
	users, err := v.db.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(users, v.size), nil
}

// Rank sorts users by experience descending (user id ascending on ties),
// assigns 1-based competition ranks, and truncates to size entries.
func Rank(users []store.UserStats, size int) []Entry {
	sorted := append([]store.UserStats(nil), users...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].XP != sorted[j].XP {
			return sorted[i].XP > sorted[j].XP
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]Entry, 0, len(sorted))
	var (
		rank   int64
		lastXP int64
	)
	for i, user := range sorted {
		if i == 0 || user.XP != lastXP {
			rank = int64(i) + 1
			lastXP = user.XP
		}
		if size > 0 && len(entries) >= size {
			break
		}
		entries = append(entries, Entry{
			Rank:       rank,
			UserID:     user.UserID,
			Name:       user.Name,
			PhotoURL:   user.PhotoURL,
			XP:         user.XP,
			Level:      gamification.Level(user.XP),
			BadgeCount: len(user.Badges),
		})
	}
	return entries
}
