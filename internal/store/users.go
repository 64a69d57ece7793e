package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UserStats is the persisted gamification state for one user.
type UserStats struct {
	UserID             string
	Name               string
	PhotoURL           string
	XP                 int64
	WordsDiscovered    int64
	SummariesGenerated int64
	ImagesGenerated    int64
	Shares             int64
	LastVisitAt        time.Time
	CurrentStreak      int64
	Badges             []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const userColumns = `user_id, name, photo_url, xp, words_discovered,
    summaries_generated, images_generated, shares, last_visit_at,
    current_streak, badges_json, created_at, updated_at`

// GetUser returns the stats row for userID, or nil when none exists.
func (s *Store) GetUser(ctx context.Context, userID string) (*UserStats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id cannot be empty")
	}
	ctx = ensureContext(ctx)

	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = ?", userID)
	stats, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return stats, nil
}

// UpsertUser writes the full stats row, inserting or replacing it.
func (s *Store) UpsertUser(ctx context.Context, stats *UserStats) error {
	if stats == nil {
		return errors.New("stats cannot be nil")
	}
	stats.UserID = strings.TrimSpace(stats.UserID)
	if stats.UserID == "" {
		return errors.New("user id cannot be empty")
	}

	badgesJSON, err := json.Marshal(badgesOrEmpty(stats.Badges))
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}

	now := time.Now().UTC()
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = now
	}
	stats.UpdatedAt = now

	err = s.execWithRetry(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            name = excluded.name,
            photo_url = excluded.photo_url,
            xp = excluded.xp,
            words_discovered = excluded.words_discovered,
            summaries_generated = excluded.summaries_generated,
            images_generated = excluded.images_generated,
            shares = excluded.shares,
            last_visit_at = excluded.last_visit_at,
            current_streak = excluded.current_streak,
            badges_json = excluded.badges_json,
            updated_at = excluded.updated_at`,
		stats.UserID,
		stats.Name,
		stats.PhotoURL,
		stats.XP,
		stats.WordsDiscovered,
		stats.SummariesGenerated,
		stats.ImagesGenerated,
		stats.Shares,
		formatTime(stats.LastVisitAt),
		stats.CurrentStreak,
		string(badgesJSON),
		formatTime(stats.CreatedAt),
		formatTime(stats.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ListUsers returns every stats row, ordered by xp descending with user id
// as the deterministic tie-break.
func (s *Store) ListUsers(ctx context.Context) ([]UserStats, error) {
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY xp DESC, user_id ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []UserStats
	for rows.Next() {
		stats, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan user: %w", scanErr)
		}
		users = append(users, *stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// AdoptStats merges a client-supplied snapshot into the stored row, but only
// when the snapshot's xp strictly exceeds what is stored. Counters never
// move backwards; badges are unioned. Reports whether the merge was applied.
func (s *Store) AdoptStats(ctx context.Context, snapshot UserStats) (bool, error) {
	snapshot.UserID = strings.TrimSpace(snapshot.UserID)
	if snapshot.UserID == "" {
		return false, errors.New("user id cannot be empty")
	}

	current, err := s.GetUser(ctx, snapshot.UserID)
	if err != nil {
		return false, err
	}
	if current == nil {
		if err := s.UpsertUser(ctx, &snapshot); err != nil {
			return false, err
		}
		return true, nil
	}
	if snapshot.XP <= current.XP {
		return false, nil
	}

	merged := *current
	merged.XP = snapshot.XP
	merged.WordsDiscovered = maxInt64(current.WordsDiscovered, snapshot.WordsDiscovered)
	merged.SummariesGenerated = maxInt64(current.SummariesGenerated, snapshot.SummariesGenerated)
	merged.ImagesGenerated = maxInt64(current.ImagesGenerated, snapshot.ImagesGenerated)
	merged.Shares = maxInt64(current.Shares, snapshot.Shares)
	merged.CurrentStreak = maxInt64(current.CurrentStreak, snapshot.CurrentStreak)
	merged.Badges = unionBadges(current.Badges, snapshot.Badges)
	if snapshot.LastVisitAt.After(current.LastVisitAt) {
		merged.LastVisitAt = snapshot.LastVisitAt
	}
	if snapshot.Name != "" {
		merged.Name = snapshot.Name
	}
	if snapshot.PhotoURL != "" {
		merged.PhotoURL = snapshot.PhotoURL
	}

	if err := s.UpsertUser(ctx, &merged); err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserStats, error) {
	var (
		stats       UserStats
		lastVisit   string
		badgesJSON  string
		createdText string
		updatedText string
	)
	err := row.Scan(
		&stats.UserID,
		&stats.Name,
		&stats.PhotoURL,
		&stats.XP,
		&stats.WordsDiscovered,
		&stats.SummariesGenerated,
		&stats.ImagesGenerated,
		&stats.Shares,
		&lastVisit,
		&stats.CurrentStreak,
		&badgesJSON,
		&createdText,
		&updatedText,
	)
	if err != nil {
		return nil, err
	}

	stats.LastVisitAt = parseTime(lastVisit)
	stats.CreatedAt = parseTime(createdText)
	stats.UpdatedAt = parseTime(updatedText)
	if badgesJSON != "" {
		if err := json.Unmarshal([]byte(badgesJSON), &stats.Badges); err != nil {
			return nil, fmt.Errorf("parse badges: %w", err)
		}
	}
	return &stats, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func badgesOrEmpty(badges []string) []string {
	if badges == nil {
		return []string{}
	}
	return badges
}

func unionBadges(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, badge := range a {
		if badge != "" && !seen[badge] {
			seen[badge] = true
			merged = append(merged, badge)
		}
	}
	for _, badge := range b {
		if badge != "" && !seen[badge] {
			seen[badge] = true
			merged = append(merged, badge)
		}
	}
	return merged
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
