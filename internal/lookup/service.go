package lookup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"etymon/internal/keypool"
	"etymon/internal/logging"
	"etymon/internal/resultcache"
	"etymon/internal/services"
	"etymon/internal/services/gemini"
)

// Provider is the subset of the generative client the lookup service uses.
type Provider interface {
	GenerateWordEntry(ctx context.Context, key keypool.Credential, word string) (gemini.WordEntry, error)
	GenerateSummary(ctx context.Context, key keypool.Credential, word string) (string, error)
	GenerateSpeech(ctx context.Context, key keypool.Credential, text string) (gemini.Blob, error)
	GenerateImage(ctx context.Context, key keypool.Credential, word string) (gemini.Blob, error)
}

// Service answers lookup requests from the cache first and the provider
// second.
type Service struct {
	pool   *keypool.Pool
	client Provider
	cache  *resultcache.Cache
	logger *slog.Logger
}

// NewService wires the lookup pipeline together.
func NewService(pool *keypool.Pool, client Provider, cache *resultcache.Cache, logger *slog.Logger) (*Service, error) {
	if pool == nil {
		return nil, errors.New("lookup: key pool required")
	}
	if client == nil {
		return nil, errors.New("lookup: provider client required")
	}
	if cache == nil {
		return nil, errors.New("lookup: result cache required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		pool:   pool,
		client: client,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "lookup"),
	}, nil
}

// Details returns the full etymology artifact for word. Provider quota or
// overload never fails the request; the caller receives a tagged degraded
// artifact instead.
func (s *Service) Details(ctx context.Context, word string) (WordArtifact, error) {
	norm, err := Normalize(word)
	if err != nil {
		return WordArtifact{}, err
	}
	cacheKey := resultcache.Key("details", norm)

	var cached WordArtifact
	if s.fromCache(cacheKey, &cached) {
		return cached, nil
	}

	var entry gemini.WordEntry
	err = s.withRotation(ctx, "details", func(cred keypool.Credential) error {
		var callErr error
		entry, callErr = s.client.GenerateWordEntry(ctx, cred, norm)
		return callErr
	})
	if err != nil {
		reason, degradable := degradeReason(err)
		if !degradable {
			return WordArtifact{}, err
		}
		s.logger.Warn("serving degraded details",
			logging.String(logging.FieldWord, norm),
			logging.String("reason", reason),
			logging.Error(err))
		artifact := degradedArtifact(norm, reason)
		s.toCache(cacheKey, artifact, true)
		return artifact, nil
	}

	artifact := artifactFromEntry(norm, entry)
	s.toCache(cacheKey, artifact, false)
	return artifact, nil
}

// Summary returns the one-paragraph origin story for word, degrading the
// same way Details does.
func (s *Service) Summary(ctx context.Context, word string) (SummaryArtifact, error) {
	norm, err := Normalize(word)
	if err != nil {
		return SummaryArtifact{}, err
	}
	cacheKey := resultcache.Key("summary", norm)

	var cached SummaryArtifact
	if s.fromCache(cacheKey, &cached) {
		return cached, nil
	}

	var text string
	err = s.withRotation(ctx, "summary", func(cred keypool.Credential) error {
		var callErr error
		text, callErr = s.client.GenerateSummary(ctx, cred, norm)
		return callErr
	})
	if err != nil {
		reason, degradable := degradeReason(err)
		if !degradable {
			return SummaryArtifact{}, err
		}
		s.logger.Warn("serving degraded summary",
			logging.String(logging.FieldWord, norm),
			logging.String("reason", reason),
			logging.Error(err))
		artifact := degradedSummary(norm, reason)
		s.toCache(cacheKey, artifact, true)
		return artifact, nil
	}

	artifact := SummaryArtifact{Word: norm, Summary: collapseParagraph(text)}
	s.toCache(cacheKey, artifact, false)
	return artifact, nil
}

// Speech narrates text and returns base64 audio. There is no degraded
// audio, so terminal provider failures surface as classified errors.
func (s *Service) Speech(ctx context.Context, text string) (MediaArtifact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MediaArtifact{}, services.Wrap(services.ErrInvalidInput, "lookup", "speech", "text required", nil)
	}
	cacheKey := resultcache.Key("tts", digest(text))

	var cached MediaArtifact
	if s.fromCache(cacheKey, &cached) {
		return cached, nil
	}

	var blob gemini.Blob
	err := s.withRotation(ctx, "speech", func(cred keypool.Credential) error {
		var callErr error
		blob, callErr = s.client.GenerateSpeech(ctx, cred, text)
		return callErr
	})
	if err != nil {
		return MediaArtifact{}, err
	}

	artifact := MediaArtifact{MIMEType: blob.MIMEType, Data: blob.Data}
	s.toCache(cacheKey, artifact, false)
	return artifact, nil
}

// Image renders an illustration for word. Like Speech, failures surface
// as classified errors rather than placeholders.
func (s *Service) Image(ctx context.Context, word string) (MediaArtifact, error) {
	norm, err := Normalize(word)
	if err != nil {
		return MediaArtifact{}, err
	}
	cacheKey := resultcache.Key("image", norm)

	var cached MediaArtifact
	if s.fromCache(cacheKey, &cached) {
		return cached, nil
	}

	var blob gemini.Blob
	err = s.withRotation(ctx, "image", func(cred keypool.Credential) error {
		var callErr error
		blob, callErr = s.client.GenerateImage(ctx, cred, norm)
		return callErr
	})
	if err != nil {
		return MediaArtifact{}, err
	}

	artifact := MediaArtifact{MIMEType: blob.MIMEType, Data: blob.Data}
	s.toCache(cacheKey, artifact, false)
	return artifact, nil
}

// withRotation runs call with successive credentials, rotating past ones
// that are rate limited. Exhausting every credential is reported as quota
// exceeded; any other failure stops the rotation immediately.
func (s *Service) withRotation(ctx context.Context, op string, call func(keypool.Credential) error) error {
	attempts := s.pool.Size()
	var lastErr error
	for i := 0; i < attempts; i++ {
		cred := s.pool.Acquire()
		err := call(cred)
		if err == nil {
			return nil
		}
		if errors.Is(err, gemini.ErrRateLimited) {
			lastErr = err
			s.logger.Warn("credential rate limited, rotating",
				logging.String("operation", op),
				logging.Int("attempt", i+1),
				logging.Int("pool_size", attempts))
			continue
		}
		return err
	}
	return services.Wrap(services.ErrQuotaExceeded, "lookup", op,
		fmt.Sprintf("all %d credentials rate limited", attempts), lastErr)
}

// degradeReason classifies an error into a degradation reason. Safety
// blocks, invalid input, and configuration problems are not degradable;
// everything else counts as provider trouble.
func degradeReason(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded), errors.Is(err, gemini.ErrRateLimited):
		return ReasonQuota, true
	case errors.Is(err, services.ErrSafetyBlocked),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrConfiguration):
		return "", false
	default:
		return ReasonOverload, true
	}
}

func (s *Service) fromCache(key string, target any) bool {
	entry, found := s.cache.Get(key)
	if !found {
		return false
	}
	if err := json.Unmarshal(entry.Payload, target); err != nil {
		s.logger.Warn("dropping unreadable cache entry",
			logging.String("key", key),
			logging.Error(err))
		_ = s.cache.Delete(key)
		return false
	}
	return true
}

// toCache persists best-effort; a mirror write failure never fails the
// lookup.
func (s *Service) toCache(key string, artifact any, degraded bool) {
	payload, err := json.Marshal(artifact)
	if err != nil {
		s.logger.Warn("failed to encode cache payload",
			logging.String("key", key),
			logging.Error(err))
		return
	}
	if err := s.cache.Put(key, payload, degraded); err != nil {
		s.logger.Warn("failed to persist cache entry",
			logging.String("key", key),
			logging.Error(err))
	}
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
