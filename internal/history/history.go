// Package history manages each user's saved lookups: deduplicated per
// normalized word, newest first, capped so the list never grows without
// bound.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"etymon/internal/logging"
	"etymon/internal/lookup"
	"etymon/internal/services"
	"etymon/internal/store"
)

// DefaultCap is the number of items kept per user when no cap is
// configured.
const DefaultCap = 60

// Item is one saved lookup as reported to clients.
type Item struct {
	Word      string          `json:"word"`
	CreatedAt time.Time       `json:"createdAt"`
	Artifact  json.RawMessage `json:"artifact,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	ImageB64  string          `json:"imageB64,omitempty"`
}

// Store keeps per-user lookup history on top of the persistence layer.
type Store struct {
	db     *store.Store
	cap    int
	logger *slog.Logger
}

// New builds a history store with the given per-user cap (0 uses
// DefaultCap).
func New(db *store.Store, itemCap int, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("history: store required")
	}
	if itemCap <= 0 {
		itemCap = DefaultCap
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		db:     db,
		cap:    itemCap,
		logger: logging.NewComponentLogger(logger, "history"),
	}, nil
}

// Append saves a lookup for a user. A repeat of the same word (after
// normalization) replaces the earlier item and moves it to the front;
// afterwards the oldest items beyond the cap are dropped.
func (s *Store) Append(ctx context.Context, userID string, item Item) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return services.Wrap(services.ErrInvalidInput, "history", "append", "user id required", nil)
	}
	word, err := lookup.Normalize(item.Word)
	if err != nil {
		return err
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err = s.db.UpsertHistoryItem(ctx, store.HistoryItem{
		UserID:    userID,
		Word:      word,
		CreatedAt: createdAt,
		Artifact:  item.Artifact,
		Summary:   item.Summary,
		ImageB64:  item.ImageB64,
	})
	if err != nil {
		return services.Wrap(services.ErrPersistence, "history", "append", "save item", err)
	}
	if err := s.db.TrimHistory(ctx, userID, s.cap); err != nil {
		return services.Wrap(services.ErrPersistence, "history", "append", "trim items", err)
	}
	return nil
}

// List returns the user's history newest first.
func (s *Store) List(ctx context.Context, userID string) ([]Item, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "history", "list", "user id required", nil)
	}

	rows, err := s.db.ListHistory(ctx, userID, s.cap)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "history", "list", "read items", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			Word:      row.Word,
			CreatedAt: row.CreatedAt,
			Artifact:  row.Artifact,
			Summary:   row.Summary,
			ImageB64:  row.ImageB64,
		})
	}
	return items, nil
}

// Delete removes the single item saved at the given timestamp.
func (s *Store) Delete(ctx context.Context, userID string, createdAt time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return services.Wrap(services.ErrInvalidInput, "history", "delete", "user id required", nil)
	}
	if createdAt.IsZero() {
		return services.Wrap(services.ErrInvalidInput, "history", "delete", "timestamp required", nil)
	}
	if err := s.db.DeleteHistoryItem(ctx, userID, createdAt); err != nil {
		return services.Wrap(services.ErrPersistence, "history", "delete", "remove item", err)
	}
	return nil
}

// Clear removes the user's entire history.
func (s *Store) Clear(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return services.Wrap(services.ErrInvalidInput, "history", "clear", "user id required", nil)
	}
	if err := s.db.ClearHistory(ctx, userID); err != nil {
		return services.Wrap(services.ErrPersistence, "history", "clear", "remove items", err)
	}
	return nil
}
