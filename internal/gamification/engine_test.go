package gamification

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"etymon/internal/services"
	"etymon/internal/store"
)

func newTestEngine(t *testing.T, now *time.Time) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.OpenPath(filepath.Join(t.TempDir(), "etymon.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	engine, err := NewEngine(st, nil, WithClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, st
}

func TestRecordActionFirstSearch(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, &now)

	result, err := engine.RecordAction(context.Background(), "u1", ActionSearch, Profile{Name: "Ada"})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if result.Stats.XP != 15 {
		t.Fatalf("expected 15 xp for first search, got %d", result.Stats.XP)
	}
	if result.Stats.Level != 1 {
		t.Fatalf("expected level 1, got %d", result.Stats.Level)
	}
	if result.Stats.WordsDiscovered != 1 {
		t.Fatalf("expected 1 word discovered, got %d", result.Stats.WordsDiscovered)
	}
	if result.Stats.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", result.Stats.CurrentStreak)
	}
	if len(result.NewBadges) != 1 || result.NewBadges[0] != "first_search" {
		t.Fatalf("expected first_search badge, got %v", result.NewBadges)
	}
	if result.LeveledUp {
		t.Fatal("15 xp must not level up")
	}
}

func TestActionXPOrdering(t *testing.T) {
	cases := []struct {
		action Action
		xp     int64
	}{
		{ActionSearch, 15},
		{ActionSummary, 25},
		{ActionImage, 25},
		{ActionShare, 30},
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			engine, _ := newTestEngine(t, &now)
			result, err := engine.RecordAction(context.Background(), "u1", tc.action, Profile{})
			if err != nil {
				t.Fatalf("RecordAction failed: %v", err)
			}
			if result.Stats.XP != tc.xp {
				t.Fatalf("expected %d xp, got %d", tc.xp, result.Stats.XP)
			}
		})
	}
}

func TestStreakProgression(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, &now)
	ctx := context.Background()

	first, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if first.Stats.CurrentStreak != 1 || first.Stats.XP != 15 {
		t.Fatalf("day 1: unexpected stats %+v", first.Stats)
	}

	// Same day again: no streak change, no bonus.
	again, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if again.Stats.CurrentStreak != 1 || again.Stats.XP != 30 {
		t.Fatalf("same day: unexpected stats %+v", again.Stats)
	}

	// Next day: streak extends and the visit bonus applies.
	now = now.Add(24 * time.Hour)
	dayTwo, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if dayTwo.Stats.CurrentStreak != 2 {
		t.Fatalf("day 2: expected streak 2, got %d", dayTwo.Stats.CurrentStreak)
	}
	if dayTwo.Stats.XP != 30+15+10 {
		t.Fatalf("day 2: expected bonus xp, got %d", dayTwo.Stats.XP)
	}

	// Two-day gap still extends.
	now = now.Add(48 * time.Hour)
	dayFour, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if dayFour.Stats.CurrentStreak != 3 {
		t.Fatalf("grace gap: expected streak 3, got %d", dayFour.Stats.CurrentStreak)
	}

	// Three-day gap resets to 1 with no bonus.
	now = now.Add(72 * time.Hour)
	xpBefore := dayFour.Stats.XP
	reset, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if reset.Stats.CurrentStreak != 1 {
		t.Fatalf("long gap: expected streak reset to 1, got %d", reset.Stats.CurrentStreak)
	}
	if reset.Stats.XP != xpBefore+15 {
		t.Fatalf("long gap: expected no bonus, got %d xp", reset.Stats.XP)
	}
}

func TestCurrentStatsAppliesVisit(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, &now)
	ctx := context.Background()

	if _, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{}); err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}

	now = now.Add(24 * time.Hour)
	stats, err := engine.CurrentStats(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentStats failed: %v", err)
	}
	if stats.CurrentStreak != 2 {
		t.Fatalf("reading stats should extend the streak, got %d", stats.CurrentStreak)
	}
	if stats.XP != 15+10 {
		t.Fatalf("reading stats should grant the daily bonus, got %d xp", stats.XP)
	}
}

func TestBadgesAreMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, st := newTestEngine(t, &now)
	ctx := context.Background()

	// A user already holding a badge whose rule no longer matches keeps it.
	if err := st.UpsertUser(ctx, &store.UserStats{
		UserID: "u1",
		Badges: []string{"streak_3"},
	}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	result, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{})
	if err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	held := map[string]bool{}
	for _, badge := range result.Stats.Badges {
		held[badge] = true
	}
	if !held["streak_3"] {
		t.Fatalf("existing badge revoked: %v", result.Stats.Badges)
	}
	for _, badge := range result.NewBadges {
		if badge == "streak_3" {
			t.Fatal("already held badge reported as new")
		}
	}
}

func TestLevelBoundary(t *testing.T) {
	cases := []struct {
		xp   int64
		want int64
	}{
		{0, 1},
		{15, 1},
		{49, 1},
		{50, 2},
		{199, 2},
		{200, 3},
		{450, 4},
	}
	for _, tc := range cases {
		if got := Level(tc.xp); got != tc.want {
			t.Errorf("Level(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
	if MinXP(2) != 50 || MinXP(3) != 200 {
		t.Errorf("unexpected level floors: %d, %d", MinXP(2), MinXP(3))
	}
	if NextLevelXP(15) != 50 {
		t.Errorf("NextLevelXP(15) = %d, want 50", NextLevelXP(15))
	}
}

func TestRecordActionUnknownAction(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, &now)
	if _, err := engine.RecordAction(context.Background(), "u1", Action("DANCE"), Profile{}); err == nil {
		t.Fatal("expected unknown action to be rejected")
	}
}

func TestConcurrentActionsSameUser(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, &now)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.RecordAction(ctx, "u1", ActionSearch, Profile{}); err != nil {
				t.Errorf("RecordAction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stats, err := engine.CurrentStats(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentStats failed: %v", err)
	}
	if stats.WordsDiscovered != workers {
		t.Fatalf("lost updates: expected %d words discovered, got %d", workers, stats.WordsDiscovered)
	}
	if stats.XP != workers*15 {
		t.Fatalf("lost updates: expected %d xp, got %d", workers*15, stats.XP)
	}
}

func TestRecordActionStoreUnavailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine, st := newTestEngine(t, &now)
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := engine.RecordAction(context.Background(), "u1", ActionSearch, Profile{})
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
