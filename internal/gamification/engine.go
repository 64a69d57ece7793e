package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"etymon/internal/logging"
	"etymon/internal/services"
	"etymon/internal/store"
)

// Action is a user activity that earns experience.
type Action string

const (
	ActionSearch  Action = "SEARCH"
	ActionSummary Action = "SUMMARY"
	ActionImage   Action = "IMAGE"
	ActionShare   Action = "SHARE"
)

// Experience rewards. Sharing outranks summarizing, which outranks plain
// searching; the daily visit bonus stacks on top of the first action of a
// new day.
const (
	xpSearch     = 15
	xpSummary    = 25
	xpImage      = 25
	xpShare      = 30
	xpDailyBonus = 10
)

// streakGraceDays is the longest calendar gap that still extends a streak.
const streakGraceDays = 2

// Profile carries the optional display fields attached to an action.
type Profile struct {
	Name     string
	PhotoURL string
}

// Stats is the gamification state reported to clients.
type Stats struct {
	UserID             string    `json:"userId"`
	Name               string    `json:"name,omitempty"`
	PhotoURL           string    `json:"photoUrl,omitempty"`
	XP                 int64     `json:"xp"`
	Level              int64     `json:"level"`
	NextLevelXP        int64     `json:"nextLevelXp"`
	WordsDiscovered    int64     `json:"wordsDiscovered"`
	SummariesGenerated int64     `json:"summariesGenerated"`
	ImagesGenerated    int64     `json:"imagesGenerated"`
	Shares             int64     `json:"shares"`
	CurrentStreak      int64     `json:"currentStreak"`
	LastVisitAt        time.Time `json:"lastVisitAt"`
	Badges             []string  `json:"badges"`
}

// Result is the outcome of recording one action.
type Result struct {
	Stats     Stats    `json:"stats"`
	NewBadges []string `json:"newBadges"`
	LeveledUp bool     `json:"leveledUp"`
}

// Engine applies actions to persisted user state.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source (useful for streak tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine over the given store.
func NewEngine(st *store.Store, logger *slog.Logger, opts ...EngineOption) (*Engine, error) {
	if st == nil {
		return nil, errors.New("gamification: store required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		store:  st,
		logger: logging.NewComponentLogger(logger, "gamification"),
		now:    time.Now,
		users:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// RecordAction applies one action for a user: visit/streak accounting,
// experience, counters, and badge evaluation, then persists the result.
// On persistence failure the prior state is returned unchanged together
// with a classified error.
func (e *Engine) RecordAction(ctx context.Context, userID string, action Action, profile Profile) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, services.Wrap(services.ErrInvalidInput, "gamification", "record action", "user id required", nil)
	}
	delta, counter, known := actionReward(action)
	if !known {
		return Result{}, services.Wrap(services.ErrInvalidInput, "gamification", "record action",
			fmt.Sprintf("unknown action %q", action), nil)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	stats, err := e.loadOrInit(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	prior := *stats
	prior.Badges = append([]string(nil), stats.Badges...)

	if profile.Name != "" {
		stats.Name = profile.Name
	}
	if profile.PhotoURL != "" {
		stats.PhotoURL = profile.PhotoURL
	}

	levelBefore := Level(stats.XP)
	if e.applyVisit(stats) {
		stats.XP += xpDailyBonus
	}
	stats.XP += int64(delta)
	*counter(stats)++

	newBadges := evaluateBadges(stats)
	leveledUp := Level(stats.XP) > levelBefore

	if err := e.store.UpsertUser(ctx, stats); err != nil {
		return Result{Stats: e.project(&prior)}, services.Wrap(services.ErrPersistence, "gamification", "record action", "persist stats", err)
	}

	e.logger.Debug("recorded action",
		logging.String(logging.FieldUserID, userID),
		logging.String("action", string(action)),
		logging.Int64("xp", stats.XP),
		logging.Int64("streak", stats.CurrentStreak),
		logging.Int("new_badges", len(newBadges)))

	return Result{Stats: e.project(stats), NewBadges: newBadges, LeveledUp: leveledUp}, nil
}

// CurrentStats reads a user's state. Reading counts as a visit, so streak
// accounting (and its bonus) runs here too.
func (e *Engine) CurrentStats(ctx context.Context, userID string) (Stats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Stats{}, services.Wrap(services.ErrInvalidInput, "gamification", "current stats", "user id required", nil)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	stats, err := e.loadOrInit(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	prior := *stats

	if e.applyVisit(stats) {
		stats.XP += xpDailyBonus
	}
	evaluateBadges(stats)
	if err := e.store.UpsertUser(ctx, stats); err != nil {
		return e.project(&prior), services.Wrap(services.ErrPersistence, "gamification", "current stats", "persist visit", err)
	}
	return e.project(stats), nil
}

// AdoptSnapshot forwards a client snapshot to the store's monotonic merge
// and returns the resulting state.
func (e *Engine) AdoptSnapshot(ctx context.Context, snapshot store.UserStats) (Stats, bool, error) {
	snapshot.UserID = strings.TrimSpace(snapshot.UserID)
	if snapshot.UserID == "" {
		return Stats{}, false, services.Wrap(services.ErrInvalidInput, "gamification", "adopt snapshot", "user id required", nil)
	}

	lock := e.userLock(snapshot.UserID)
	lock.Lock()
	defer lock.Unlock()

	applied, err := e.store.AdoptStats(ctx, snapshot)
	if err != nil {
		return Stats{}, false, services.Wrap(services.ErrPersistence, "gamification", "adopt snapshot", "merge stats", err)
	}
	stats, err := e.loadOrInit(ctx, snapshot.UserID)
	if err != nil {
		return Stats{}, applied, err
	}
	return e.project(stats), applied, nil
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.users[userID] = lock
	}
	return lock
}

func (e *Engine) loadOrInit(ctx context.Context, userID string) (*store.UserStats, error) {
	stats, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "gamification", "load stats", "read user", err)
	}
	if stats == nil {
		stats = &store.UserStats{UserID: userID, CurrentStreak: 1, LastVisitAt: e.now().UTC()}
	}
	return stats, nil
}

// applyVisit updates streak state for the current moment and reports
// whether the daily visit bonus applies. Same calendar day is a no-op; a
// gap within grace extends the streak; anything longer resets it.
func (e *Engine) applyVisit(stats *store.UserStats) bool {
	now := e.now().UTC()
	defer func() { stats.LastVisitAt = now }()

	if stats.LastVisitAt.IsZero() {
		stats.CurrentStreak = 1
		return false
	}
	gap := calendarDaysBetween(stats.LastVisitAt, now)
	switch {
	case gap <= 0:
		return false
	case gap <= streakGraceDays:
		stats.CurrentStreak++
		return true
	default:
		stats.CurrentStreak = 1
		return false
	}
}

func (e *Engine) project(stats *store.UserStats) Stats {
	badges := stats.Badges
	if badges == nil {
		badges = []string{}
	}
	return Stats{
		UserID:             stats.UserID,
		Name:               stats.Name,
		PhotoURL:           stats.PhotoURL,
		XP:                 stats.XP,
		Level:              Level(stats.XP),
		NextLevelXP:        NextLevelXP(stats.XP),
		WordsDiscovered:    stats.WordsDiscovered,
		SummariesGenerated: stats.SummariesGenerated,
		ImagesGenerated:    stats.ImagesGenerated,
		Shares:             stats.Shares,
		CurrentStreak:      stats.CurrentStreak,
		LastVisitAt:        stats.LastVisitAt,
		Badges:             badges,
	}
}

func actionReward(action Action) (int, func(*store.UserStats) *int64, bool) {
	switch action {
	case ActionSearch:
		return xpSearch, func(s *store.UserStats) *int64 { return &s.WordsDiscovered }, true
	case ActionSummary:
		return xpSummary, func(s *store.UserStats) *int64 { return &s.SummariesGenerated }, true
	case ActionImage:
		return xpImage, func(s *store.UserStats) *int64 { return &s.ImagesGenerated }, true
	case ActionShare:
		return xpShare, func(s *store.UserStats) *int64 { return &s.Shares }, true
	default:
		return 0, nil, false
	}
}

func calendarDaysBetween(a, b time.Time) int {
	a = a.UTC()
	b = b.UTC()
	dayA := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	dayB := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(dayB.Sub(dayA) / (24 * time.Hour))
}
