package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"etymon/internal/gamification"
	"etymon/internal/history"
	"etymon/internal/logging"
	"etymon/internal/services"
	"etymon/internal/store"
)

func (s *Server) handleDetails(c *gin.Context) {
	word := c.Query("word")
	userID := c.Query("userId")

	artifact, err := s.deps.Lookups.Details(c.Request.Context(), word)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Progress and history are best effort; the lookup result stands on
	// its own even when persistence is unavailable.
	if userID != "" {
		if _, err := s.deps.Engine.RecordAction(c.Request.Context(), userID, gamification.ActionSearch, gamification.Profile{}); err != nil {
			s.logger.Warn("failed to record search action",
				logging.String(logging.FieldUserID, userID),
				logging.Error(err))
		}
		payload, marshalErr := json.Marshal(artifact)
		if marshalErr == nil {
			if err := s.deps.History.Append(c.Request.Context(), userID, history.Item{
				Word:     artifact.Word,
				Artifact: payload,
			}); err != nil {
				s.logger.Warn("failed to append history",
					logging.String(logging.FieldUserID, userID),
					logging.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, artifact)
}

func (s *Server) handleSummary(c *gin.Context) {
	artifact, err := s.deps.Lookups.Summary(c.Request.Context(), c.Query("word"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

type mediaRequest struct {
	Word string `json:"word" form:"word"`
	Text string `json:"text" form:"text"`
}

func (s *Server) handleImage(c *gin.Context) {
	var req mediaRequest
	if err := bindMedia(c, &req); err != nil {
		s.writeError(c, err)
		return
	}
	media, err := s.deps.Lookups.Image(c.Request.Context(), req.Word)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

func (s *Server) handleTTS(c *gin.Context) {
	var req mediaRequest
	if err := bindMedia(c, &req); err != nil {
		s.writeError(c, err)
		return
	}
	text := req.Text
	if text == "" {
		text = req.Word
	}
	media, err := s.deps.Lookups.Speech(c.Request.Context(), text)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

func bindMedia(c *gin.Context, req *mediaRequest) error {
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(req); err != nil {
			return services.Wrap(services.ErrInvalidInput, "server", "bind media", "invalid request body", err)
		}
		return nil
	}
	req.Word = c.Query("word")
	req.Text = c.Query("text")
	return nil
}

func (s *Server) handleGetGamification(c *gin.Context) {
	stats, err := s.deps.Engine.CurrentStats(c.Request.Context(), c.Query("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type actionRequest struct {
	UserID  string `json:"userId"`
	Action  string `json:"action"`
	Payload struct {
		Name     string `json:"name"`
		PhotoURL string `json:"photoUrl"`
	} `json:"payload"`
}

func (s *Server) handlePostGamification(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, services.Wrap(services.ErrInvalidInput, "server", "record action", "invalid request body", err))
		return
	}
	result, err := s.deps.Engine.RecordAction(
		c.Request.Context(),
		req.UserID,
		gamification.Action(req.Action),
		gamification.Profile{Name: req.Payload.Name, PhotoURL: req.Payload.PhotoURL},
	)
	if errors.Is(err, services.ErrPersistence) && result.Stats.UserID != "" {
		// The engine hands back the pre-action state when the write
		// fails, so the client keeps a consistent view.
		s.logger.Warn("action not persisted",
			logging.String(logging.FieldUserID, req.UserID),
			logging.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"stats":     result.Stats,
			"newBadges": result.NewBadges,
			"leveledUp": result.LeveledUp,
			"persisted": false,
		})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type mergeRequest struct {
	UserID string `json:"userId"`
	Stats  struct {
		Name               string   `json:"name"`
		PhotoURL           string   `json:"photoUrl"`
		XP                 int64    `json:"xp"`
		WordsDiscovered    int64    `json:"wordsDiscovered"`
		SummariesGenerated int64    `json:"summariesGenerated"`
		ImagesGenerated    int64    `json:"imagesGenerated"`
		Shares             int64    `json:"shares"`
		CurrentStreak      int64    `json:"currentStreak"`
		LastVisitAt        string   `json:"lastVisitAt"`
		Badges             []string `json:"badges"`
	} `json:"stats"`
}

func (s *Server) handleMergeGamification(c *gin.Context) {
	if !s.cfg.Gamification.AllowClientMerge {
		c.JSON(http.StatusForbidden, gin.H{"error": "client stats merge is disabled"})
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, services.Wrap(services.ErrInvalidInput, "server", "merge stats", "invalid request body", err))
		return
	}

	snapshot := store.UserStats{
		UserID:             req.UserID,
		Name:               req.Stats.Name,
		PhotoURL:           req.Stats.PhotoURL,
		XP:                 req.Stats.XP,
		WordsDiscovered:    req.Stats.WordsDiscovered,
		SummariesGenerated: req.Stats.SummariesGenerated,
		ImagesGenerated:    req.Stats.ImagesGenerated,
		Shares:             req.Stats.Shares,
		CurrentStreak:      req.Stats.CurrentStreak,
		Badges:             req.Stats.Badges,
	}
	if req.Stats.LastVisitAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.Stats.LastVisitAt)
		if err != nil {
			s.writeError(c, services.Wrap(services.ErrInvalidInput, "server", "merge stats", "invalid lastVisitAt timestamp", err))
			return
		}
		snapshot.LastVisitAt = parsed
	}

	stats, applied, err := s.deps.Engine.AdoptSnapshot(c.Request.Context(), snapshot)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "applied": applied})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	entries, err := s.deps.Leaderboard.Top(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleListHistory(c *gin.Context) {
	items, err := s.deps.History.List(c.Request.Context(), c.Query("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type historyRequest struct {
	UserID   string          `json:"userId"`
	Word     string          `json:"word"`
	Artifact json.RawMessage `json:"artifact"`
	Summary  string          `json:"summary"`
	ImageB64 string          `json:"imageB64"`
}

func (s *Server) handleAppendHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, services.Wrap(services.ErrInvalidInput, "server", "append history", "invalid request body", err))
		return
	}
	err := s.deps.History.Append(c.Request.Context(), req.UserID, history.Item{
		Word:     req.Word,
		Artifact: req.Artifact,
		Summary:  req.Summary,
		ImageB64: req.ImageB64,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) handleDeleteHistory(c *gin.Context) {
	ts, err := time.Parse(time.RFC3339Nano, c.Query("ts"))
	if err != nil {
		s.writeError(c, services.Wrap(services.ErrInvalidInput, "server", "delete history", "invalid ts parameter", err))
		return
	}
	if err := s.deps.History.Delete(c.Request.Context(), c.Query("userId"), ts); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.deps.History.Clear(c.Request.Context(), c.Query("userId")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// writeError maps classified service errors to HTTP responses. Internal
// failures are logged but not echoed to clients.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "provider quota exhausted", "reason": "quota"})
	case errors.Is(err, services.ErrSafetyBlocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "content blocked by provider", "reason": "safety"})
	case errors.Is(err, services.ErrConfiguration):
		s.logger.Error("internal error", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case errors.Is(err, services.ErrPersistence):
		s.logger.Error("storage unavailable", logging.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		s.logger.Error("upstream error", logging.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unavailable", "reason": "generic"})
	}
}
