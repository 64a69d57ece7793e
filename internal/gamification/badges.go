package gamification

import "etymon/internal/store"

// badgeRule unlocks a badge once a single counter crosses a threshold.
// Badges never revoke; evaluation only adds.
type badgeRule struct {
	ID        string
	Counter   func(*store.UserStats) int64
	Threshold int64
}

var badgeRules = []badgeRule{
	{ID: "first_search", Counter: func(s *store.UserStats) int64 { return s.WordsDiscovered }, Threshold: 1},
	{ID: "word_collector", Counter: func(s *store.UserStats) int64 { return s.WordsDiscovered }, Threshold: 10},
	{ID: "lexicographer", Counter: func(s *store.UserStats) int64 { return s.WordsDiscovered }, Threshold: 50},
	{ID: "first_summary", Counter: func(s *store.UserStats) int64 { return s.SummariesGenerated }, Threshold: 1},
	{ID: "storyteller", Counter: func(s *store.UserStats) int64 { return s.SummariesGenerated }, Threshold: 10},
	{ID: "first_image", Counter: func(s *store.UserStats) int64 { return s.ImagesGenerated }, Threshold: 1},
	{ID: "illustrator", Counter: func(s *store.UserStats) int64 { return s.ImagesGenerated }, Threshold: 10},
	{ID: "first_share", Counter: func(s *store.UserStats) int64 { return s.Shares }, Threshold: 1},
	{ID: "evangelist", Counter: func(s *store.UserStats) int64 { return s.Shares }, Threshold: 10},
	{ID: "streak_3", Counter: func(s *store.UserStats) int64 { return s.CurrentStreak }, Threshold: 3},
	{ID: "streak_7", Counter: func(s *store.UserStats) int64 { return s.CurrentStreak }, Threshold: 7},
	{ID: "streak_30", Counter: func(s *store.UserStats) int64 { return s.CurrentStreak }, Threshold: 30},
	{ID: "level_5", Counter: func(s *store.UserStats) int64 { return Level(s.XP) }, Threshold: 5},
	{ID: "level_10", Counter: func(s *store.UserStats) int64 { return Level(s.XP) }, Threshold: 10},
}

// evaluateBadges adds newly earned badges to stats and returns their IDs.
// Existing badges are preserved even when their rule no longer matches.
func evaluateBadges(stats *store.UserStats) []string {
	held := make(map[string]bool, len(stats.Badges))
	for _, badge := range stats.Badges {
		held[badge] = true
	}

	var unlocked []string
	for _, rule := range badgeRules {
		if held[rule.ID] {
			continue
		}
		if rule.Counter(stats) >= rule.Threshold {
			held[rule.ID] = true
			stats.Badges = append(stats.Badges, rule.ID)
			unlocked = append(unlocked, rule.ID)
		}
	}
	return unlocked
}
