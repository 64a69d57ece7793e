package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"etymon/internal/keypool"
	"etymon/internal/services"
)

const (
	defaultCallTimeout    = 9500 * time.Millisecond
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 800 * time.Millisecond
	defaultRetryMaxDelay  = 8 * time.Second
)

// ErrRateLimited reports quota exhaustion for the single credential used
// by a call. It is non-retryable on that credential; the caller may
// re-invoke with a different one before treating the lookup as
// quota-exceeded overall.
var ErrRateLimited = errors.New("credential rate limited")

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	BaseURL        string
	TextModel      string
	TTSModel       string
	ImageModel     string
	CallTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// Client issues generative calls against the provider REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxDelay time.Duration
	sleeper       func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithRetryMaxAttempts overrides the retry attempt budget.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.cfg.RetryAttempts = attempts
		}
	}
}

// WithRetryBackoff overrides the base and maximum backoff delays.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		if base >= 0 {
			c.cfg.RetryBaseDelay = base
		}
		if max >= 0 {
			c.retryMaxDelay = max
		}
	}
}

// NewClient constructs a provider client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	client := &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: cfg.CallTimeout},
		retryMaxDelay: defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: cfg.CallTimeout}
	}
	return client
}

// WordRoot is one etymological root of a word.
type WordRoot struct {
	Term     string `json:"term"`
	Language string `json:"language"`
	Meaning  string `json:"meaning"`
}

// WordEntry is the structured payload the model produces for a word.
type WordEntry struct {
	Word         string     `json:"word"`
	Phonetic     string     `json:"phonetic"`
	PartOfSpeech string     `json:"partOfSpeech"`
	Definition   string     `json:"definition"`
	Etymology    string     `json:"etymology"`
	Roots        []WordRoot `json:"roots"`
	Examples     []string   `json:"examples"`
	Synonyms     []string   `json:"synonyms"`
	FunFact      string     `json:"funFact"`
}

// Blob is a binary payload returned base64 encoded.
type Blob struct {
	MIMEType string
	Data     string
}

// GenerateWordEntry asks the model for structured etymology data.
func (c *Client) GenerateWordEntry(ctx context.Context, key keypool.Credential, word string) (WordEntry, error) {
	var entry WordEntry
	word = strings.TrimSpace(word)
	if word == "" {
		return entry, services.Wrap(services.ErrInvalidInput, "gemini", "word entry", "word required", nil)
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: wordEntryPrompt(word)}}}},
		GenerationConfig: &generationConfig{
			Temperature:      0.4,
			ResponseMIMEType: "application/json",
		},
	}
	text, err := c.generateTextWithRetry(ctx, key, c.cfg.TextModel, req, "word entry")
	if err != nil {
		return entry, err
	}
	if err := DecodeModelJSON(text, &entry); err != nil {
		return entry, fmt.Errorf("word entry: parse payload: %w", err)
	}
	return entry, nil
}

// GenerateSummary asks the model for a single-paragraph etymology summary.
// The caller owns paragraph trimming of truncated output.
func (c *Client) GenerateSummary(ctx context.Context, key keypool.Credential, word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", services.Wrap(services.ErrInvalidInput, "gemini", "summary", "word required", nil)
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: summaryPrompt(word)}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.6,
			MaxOutputTokens: 320,
		},
	}
	return c.generateTextWithRetry(ctx, key, c.cfg.TextModel, req, "summary")
}

// GenerateSpeech narrates the supplied text and returns base64 audio.
func (c *Client) GenerateSpeech(ctx context.Context, key keypool.Credential, text string) (Blob, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Blob{}, services.Wrap(services.ErrInvalidInput, "gemini", "speech", "text required", nil)
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	return c.generateBlobWithRetry(ctx, key, c.cfg.TTSModel, req, "speech")
}

// GenerateImage renders an illustrative image and returns base64 data.
func (c *Client) GenerateImage(ctx context.Context, key keypool.Credential, word string) (Blob, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Blob{}, services.Wrap(services.ErrInvalidInput, "gemini", "image", "word required", nil)
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: imagePrompt(word)}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	return c.generateBlobWithRetry(ctx, key, c.cfg.ImageModel, req, "image")
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) generateTextWithRetry(ctx context.Context, key keypool.Credential, model string, payload generateRequest, op string) (string, error) {
	resp, err := c.generateWithRetry(ctx, key, model, payload, op)
	if err != nil {
		return "", err
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%s: empty content (finish_reason=%q)", op, extractFinishReason(resp))
	}
	return text, nil
}

func (c *Client) generateBlobWithRetry(ctx context.Context, key keypool.Credential, model string, payload generateRequest, op string) (Blob, error) {
	resp, err := c.generateWithRetry(ctx, key, model, payload, op)
	if err != nil {
		return Blob{}, err
	}
	blob := extractBlob(resp)
	if blob.Data == "" {
		return Blob{}, fmt.Errorf("%s: empty inline data (finish_reason=%q)", op, extractFinishReason(resp))
	}
	return blob, nil
}

// generateWithRetry runs one logical call: bounded overload retries with
// exponential backoff, all inside the configured wall-clock budget.
func (c *Client) generateWithRetry(ctx context.Context, key keypool.Credential, model string, payload generateRequest, op string) (generateResponse, error) {
	var empty generateResponse
	if strings.TrimSpace(string(key)) == "" {
		return empty, services.Wrap(services.ErrConfiguration, "gemini", op, "api key required", nil)
	}
	if strings.TrimSpace(model) == "" {
		return empty, services.Wrap(services.ErrConfiguration, "gemini", op, "model required", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	attempts := c.cfg.RetryAttempts
	for attempt := 1; ; attempt++ {
		resp, err := c.sendOnce(callCtx, key, model, payload)
		if err == nil {
			return resp, nil
		}

		// Terminal failures (rate limit, safety, 4xx, cancellation)
		// surface as-is so callers can classify them; only transient
		// overload burns retry attempts.
		delay, retryable := c.retryDelay(callCtx, err, attempt)
		if !retryable {
			return empty, err
		}
		if attempt == attempts {
			return empty, services.Wrap(services.ErrOverloaded, "gemini", op, fmt.Sprintf("failed after %d attempts", attempts), err)
		}
		if sleepErr := c.sleep(callCtx, delay); sleepErr != nil {
			// The wall clock ran out mid-backoff; report the provider
			// failure, not the cancellation.
			return empty, services.Wrap(services.ErrOverloaded, "gemini", op, "call budget exhausted", err)
		}
	}
}

func (c *Client) sendOnce(ctx context.Context, key keypool.Credential, model string, payload generateRequest) (generateResponse, error) {
	var parsed generateResponse
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(model))
	encoded, err := json.Marshal(payload)
	if err != nil {
		return parsed, fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return parsed, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", string(key))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return parsed, fmt.Errorf("gemini request: http error (timeout=%s): %w", c.cfg.CallTimeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("gemini request: read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return parsed, fmt.Errorf("%w: http 429: %s", ErrRateLimited, summarizeSnippet(string(body)))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return parsed, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return parsed, fmt.Errorf("gemini request: decode response: %w", err)
	}
	if parsed.Error != nil {
		return parsed, fmt.Errorf("gemini request: api error %s: %s", parsed.Error.Status, strings.TrimSpace(parsed.Error.Message))
	}
	if reason := blockReason(parsed); reason != "" {
		return parsed, services.Wrap(services.ErrSafetyBlocked, "gemini", "generate", reason, nil)
	}
	return parsed, nil
}

func blockReason(resp generateResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "prompt blocked: " + resp.PromptFeedback.BlockReason
	}
	for _, candidate := range resp.Candidates {
		if strings.EqualFold(candidate.FinishReason, "SAFETY") {
			return "candidate blocked: safety"
		}
	}
	return ""
}

func extractText(resp generateResponse) string {
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if trimmed := strings.TrimSpace(p.Text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func extractBlob(resp generateResponse) Blob {
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
			}
		}
	}
	return Blob{}
}

func extractFinishReason(resp generateResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			return candidate.FinishReason
		}
	}
	return ""
}

// retryDelay reports whether err is a transient overload worth retrying
// and, if so, how long to back off before the next attempt. Attempt
// budgeting is the caller's concern.
func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, services.ErrSafetyBlocked) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusServiceUnavailable,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles per attempt: attempt 1 -> base, attempt 2 -> base*2, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
