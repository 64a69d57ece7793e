package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// HistoryItem is one saved lookup in a user's history.
type HistoryItem struct {
	UserID    string
	Word      string
	CreatedAt time.Time
	Artifact  json.RawMessage
	Summary   string
	ImageB64  string
}

// UpsertHistoryItem inserts or refreshes the row for (user, word). A repeat
// lookup replaces the payload and moves the item to the front by advancing
// created_at.
func (s *Store) UpsertHistoryItem(ctx context.Context, item HistoryItem) error {
	item.UserID = strings.TrimSpace(item.UserID)
	item.Word = strings.TrimSpace(item.Word)
	if item.UserID == "" || item.Word == "" {
		return errors.New("user id and word cannot be empty")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	err := s.execWithRetry(ctx, `
        INSERT INTO history_items (user_id, word, created_at, artifact_json, summary, image_b64)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id, word) DO UPDATE SET
            created_at = excluded.created_at,
            artifact_json = excluded.artifact_json,
            summary = excluded.summary,
            image_b64 = excluded.image_b64`,
		item.UserID,
		item.Word,
		formatTime(item.CreatedAt),
		string(item.Artifact),
		item.Summary,
		item.ImageB64,
	)
	if err != nil {
		return fmt.Errorf("upsert history item: %w", err)
	}
	return nil
}

// ListHistory returns a user's items newest first, up to limit (0 = all).
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id cannot be empty")
	}
	ctx = ensureContext(ctx)

	query := `SELECT user_id, word, created_at, artifact_json, summary, image_b64
        FROM history_items WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var (
			item        HistoryItem
			createdText string
			artifact    string
		)
		if err := rows.Scan(&item.UserID, &item.Word, &createdText, &artifact, &item.Summary, &item.ImageB64); err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		item.CreatedAt = parseTime(createdText)
		if artifact != "" {
			item.Artifact = json.RawMessage(artifact)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return items, nil
}

// DeleteHistoryItem removes the item created at the given timestamp.
func (s *Store) DeleteHistoryItem(ctx context.Context, userID string, createdAt time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	if err := s.execWithRetry(ctx,
		"DELETE FROM history_items WHERE user_id = ? AND created_at = ?",
		userID, formatTime(createdAt),
	); err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	return nil
}

// ClearHistory removes every item for the user.
func (s *Store) ClearHistory(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	if err := s.execWithRetry(ctx,
		"DELETE FROM history_items WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// TrimHistory deletes the oldest items beyond keep entries.
func (s *Store) TrimHistory(ctx context.Context, userID string, keep int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	if keep <= 0 {
		return s.ClearHistory(ctx, userID)
	}
	if err := s.execWithRetry(ctx, `
        DELETE FROM history_items
        WHERE user_id = ? AND created_at NOT IN (
            SELECT created_at FROM history_items
            WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
        )`,
		userID, userID, keep,
	); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}
