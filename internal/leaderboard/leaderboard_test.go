package leaderboard

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"etymon/internal/store"
)

func TestRankCompetitionTies(t *testing.T) {
	users := []store.UserStats{
		{UserID: "carol", XP: 100},
		{UserID: "bob", XP: 300},
		{UserID: "alice", XP: 300},
	}

	entries := Rank(users, 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Equal scores share rank 1; the skipped position leaves the next
	// distinct score at rank 3.
	if entries[0].UserID != "alice" || entries[0].Rank != 1 {
		t.Fatalf("entry 0: %+v", entries[0])
	}
	if entries[1].UserID != "bob" || entries[1].Rank != 1 {
		t.Fatalf("entry 1: %+v", entries[1])
	}
	if entries[2].UserID != "carol" || entries[2].Rank != 3 {
		t.Fatalf("entry 2: %+v", entries[2])
	}
}

func TestRankTruncates(t *testing.T) {
	var users []store.UserStats
	for i := 0; i < 10; i++ {
		users = append(users, store.UserStats{
			UserID: fmt.Sprintf("u%02d", i),
			XP:     int64(1000 - i*10),
		})
	}

	entries := Rank(users, 5)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[0].UserID != "u00" || entries[4].UserID != "u04" {
		t.Fatalf("unexpected truncation: first %s last %s", entries[0].UserID, entries[4].UserID)
	}
}

func TestRankProjectsLevelAndBadges(t *testing.T) {
	entries := Rank([]store.UserStats{
		{UserID: "u1", XP: 200, Badges: []string{"first_search", "streak_3"}},
	}, 0)
	if entries[0].Level != 3 {
		t.Fatalf("expected level 3 at 200 xp, got %d", entries[0].Level)
	}
	if entries[0].BadgeCount != 2 {
		t.Fatalf("expected 2 badges, got %d", entries[0].BadgeCount)
	}
}

func TestTopReadsStore(t *testing.T) {
	db, err := store.OpenPath(filepath.Join(t.TempDir(), "etymon.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, u := range []store.UserStats{
		{UserID: "a", XP: 50},
		{UserID: "b", XP: 500},
	} {
		user := u
		if err := db.UpsertUser(ctx, &user); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
	}

	view, err := New(db, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	entries, err := view.Top(ctx)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "b" {
		t.Fatalf("unexpected leaderboard %+v", entries)
	}
}
