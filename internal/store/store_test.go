package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "etymon.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats := &UserStats{
		UserID:          "u1",
		Name:            "Ada",
		XP:              90,
		WordsDiscovered: 3,
		CurrentStreak:   2,
		LastVisitAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Badges:          []string{"first_search"},
	}
	if err := s.UpsertUser(ctx, stats); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected user row")
	}
	if got.XP != 90 || got.Name != "Ada" || got.CurrentStreak != 2 {
		t.Fatalf("unexpected stats %+v", got)
	}
	if len(got.Badges) != 1 || got.Badges[0] != "first_search" {
		t.Fatalf("unexpected badges %v", got.Badges)
	}
	if !got.LastVisitAt.Equal(stats.LastVisitAt) {
		t.Fatalf("last visit mismatch: got %v want %v", got.LastVisitAt, stats.LastVisitAt)
	}

	stats.XP = 120
	if err := s.UpsertUser(ctx, stats); err != nil {
		t.Fatalf("second UpsertUser failed: %v", err)
	}
	got, err = s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser after update failed: %v", err)
	}
	if got.XP != 120 {
		t.Fatalf("expected updated xp 120, got %d", got.XP)
	}
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetUser(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing user, got %+v", got)
	}
}

func TestListUsersOrderedByXP(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []UserStats{
		{UserID: "b", XP: 300},
		{UserID: "a", XP: 300},
		{UserID: "c", XP: 100},
	} {
		user := u
		if err := s.UpsertUser(ctx, &user); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	wantOrder := []string{"a", "b", "c"}
	if len(users) != len(wantOrder) {
		t.Fatalf("expected %d users, got %d", len(wantOrder), len(users))
	}
	for i, want := range wantOrder {
		if users[i].UserID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, users[i].UserID)
		}
	}
}

func TestAdoptStatsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := &UserStats{UserID: "u1", XP: 200, WordsDiscovered: 5, Badges: []string{"first_search"}}
	if err := s.UpsertUser(ctx, base); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	applied, err := s.AdoptStats(ctx, UserStats{UserID: "u1", XP: 150, WordsDiscovered: 9})
	if err != nil {
		t.Fatalf("AdoptStats failed: %v", err)
	}
	if applied {
		t.Fatal("snapshot with lower xp must be rejected")
	}
	got, _ := s.GetUser(ctx, "u1")
	if got.XP != 200 || got.WordsDiscovered != 5 {
		t.Fatalf("rejected snapshot mutated row: %+v", got)
	}

	applied, err = s.AdoptStats(ctx, UserStats{
		UserID:          "u1",
		XP:              260,
		WordsDiscovered: 4,
		Badges:          []string{"word_collector"},
	})
	if err != nil {
		t.Fatalf("AdoptStats failed: %v", err)
	}
	if !applied {
		t.Fatal("snapshot with higher xp should be applied")
	}
	got, _ = s.GetUser(ctx, "u1")
	if got.XP != 260 {
		t.Fatalf("expected merged xp 260, got %d", got.XP)
	}
	if got.WordsDiscovered != 5 {
		t.Fatalf("counters must not move backwards, got %d", got.WordsDiscovered)
	}
	if len(got.Badges) != 2 {
		t.Fatalf("expected badge union, got %v", got.Badges)
	}
}

func TestAdoptStatsNewUser(t *testing.T) {
	s := newTestStore(t)
	applied, err := s.AdoptStats(context.Background(), UserStats{UserID: "fresh", XP: 45})
	if err != nil {
		t.Fatalf("AdoptStats failed: %v", err)
	}
	if !applied {
		t.Fatal("snapshot for unknown user should create the row")
	}
}

func TestHistoryUpsertDedupes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := HistoryItem{
		UserID:    "u1",
		Word:      "cat",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Artifact:  json.RawMessage(`{"word":"cat"}`),
	}
	if err := s.UpsertHistoryItem(ctx, first); err != nil {
		t.Fatalf("UpsertHistoryItem failed: %v", err)
	}
	if err := s.UpsertHistoryItem(ctx, HistoryItem{
		UserID:    "u1",
		Word:      "dog",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("UpsertHistoryItem failed: %v", err)
	}

	repeat := first
	repeat.CreatedAt = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	repeat.Summary = "updated"
	if err := s.UpsertHistoryItem(ctx, repeat); err != nil {
		t.Fatalf("repeat UpsertHistoryItem failed: %v", err)
	}

	items, err := s.ListHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("repeat lookup must not duplicate, got %d items", len(items))
	}
	if items[0].Word != "cat" || items[0].Summary != "updated" {
		t.Fatalf("repeat lookup should move to front with new payload: %+v", items[0])
	}
}

func TestHistoryDeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, word := range []string{"one", "two", "three"} {
		if err := s.UpsertHistoryItem(ctx, HistoryItem{
			UserID:    "u1",
			Word:      word,
			CreatedAt: ts.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("UpsertHistoryItem failed: %v", err)
		}
	}

	if err := s.DeleteHistoryItem(ctx, "u1", ts.Add(time.Minute)); err != nil {
		t.Fatalf("DeleteHistoryItem failed: %v", err)
	}
	items, _ := s.ListHistory(ctx, "u1", 0)
	if len(items) != 2 {
		t.Fatalf("expected 2 items after delete, got %d", len(items))
	}

	if err := s.ClearHistory(ctx, "u1"); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	items, _ = s.ListHistory(ctx, "u1", 0)
	if len(items) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(items))
	}
}

func TestHistoryTrim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.UpsertHistoryItem(ctx, HistoryItem{
			UserID:    "u1",
			Word:      string(rune('a' + i)),
			CreatedAt: ts.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("UpsertHistoryItem failed: %v", err)
		}
	}

	if err := s.TrimHistory(ctx, "u1", 3); err != nil {
		t.Fatalf("TrimHistory failed: %v", err)
	}
	items, _ := s.ListHistory(ctx, "u1", 0)
	if len(items) != 3 {
		t.Fatalf("expected 3 items after trim, got %d", len(items))
	}
	if items[0].Word != "e" || items[2].Word != "c" {
		t.Fatalf("trim should keep the newest items: %+v", items)
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etymon.db")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if _, err := s.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version failed: %v", err)
	}
	_ = s.Close()

	if _, err := OpenPath(path); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}
