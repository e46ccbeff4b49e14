package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/service/auth"
	"github.com/phrazzld/tempo/internal/timer"
)

// RateCacheTTL is how long a resolved category rate is reused.
const RateCacheTTL = 5 * time.Minute

const maxResponseBytes = 1 << 20

// Client talks to the session endpoint over HTTP and JSON.
type Client struct {
	baseURL    string
	http       *http.Client
	tokens     auth.JWTService
	userID     string
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.Mutex
	rates map[string]cachedRate
}

type cachedRate struct {
	rate    float64
	found   bool
	expires time.Time
}

// Compile-time checks that Client can back the timer registry
var (
	_ timer.SessionClient = (*Client)(nil)
	_ timer.RateLookup    = (*Client)(nil)
)

// NewClient creates a client for cfg.BaseURL. Tokens are issued for userID.
func NewClient(cfg config.SessionConfig, tokens auth.JWTService, userID string, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid session base url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("token service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		tokens:     tokens,
		userID:     userID,
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
		now:        time.Now,
		logger:     logger.With("component", "session_client"),
		rates:      make(map[string]cachedRate),
	}, nil
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

type rateResponse struct {
	HourlyRate *float64 `json:"hourly_rate"`
}

// StartSession opens a session and returns its id. It is sent once: a
// retry after a committed but failed response would open a second session
// that nothing ever closes.
func (c *Client) StartSession(ctx context.Context, req timer.StartSessionRequest) (string, error) {
	if req.UserID == "" {
		req.UserID = c.userID
	}

	var resp startSessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &resp, 0); err != nil {
		return "", fmt.Errorf("start session for task %s: %w", req.TaskID, err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("start session for task %s: %w: empty session_id", req.TaskID, ErrInvalidResponse)
	}
	return resp.SessionID, nil
}

// EndSession closes a session.
func (c *Client) EndSession(ctx context.Context, req timer.EndSessionRequest) error {
	if req.SessionID == "" {
		return fmt.Errorf("end session: %w: empty session id", ErrRejected)
	}
	if req.UserID == "" {
		req.UserID = c.userID
	}
	if req.Action == "" {
		req.Action = timer.EndActionStop
	}

	path := "/sessions/" + url.PathEscape(req.SessionID) + "/end"
	if err := c.do(ctx, http.MethodPost, path, req, nil, c.maxRetries); err != nil {
		return fmt.Errorf("end session %s: %w", req.SessionID, err)
	}
	return nil
}

// ResolveRate fetches the hourly rate of a category. Failures and unknown
// categories report no rate. Answers, including "no rate", are cached for
// RateCacheTTL.
func (c *Client) ResolveRate(ctx context.Context, categoryID string) (float64, bool) {
	if categoryID == "" {
		return 0, false
	}

	c.mu.Lock()
	cached, ok := c.rates[categoryID]
	c.mu.Unlock()
	if ok && c.now().Before(cached.expires) {
		return cached.rate, cached.found
	}

	var resp rateResponse
	err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(categoryID)+"/rate", nil, &resp, c.maxRetries)

	var statusErr *StatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		c.logger.Debug("category has no rate", "category_id", categoryID)
	default:
		// Not cached, so the next start retries the lookup.
		c.logger.Warn("rate lookup failed", "category_id", categoryID, "error", err)
		return 0, false
	}

	entry := cachedRate{expires: c.now().Add(RateCacheTTL)}
	if err == nil && resp.HourlyRate != nil && *resp.HourlyRate >= 0 && !math.IsNaN(*resp.HourlyRate) {
		entry.rate = *resp.HourlyRate
		entry.found = true
	}
	c.mu.Lock()
	c.rates[categoryID] = entry
	c.mu.Unlock()
	return entry.rate, entry.found
}

// do sends one request, retrying transient failures up to retries times with
// exponential backoff and jitter. out may be nil when the body is ignored.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, retries int) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = b
	}

	for attempt := 0; ; attempt++ {
		err := c.once(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransientFailure) || attempt >= retries {
			return err
		}

		delay := c.backoff(attempt)
		c.logger.Debug("retrying session endpoint call",
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
}

// backoff returns retryDelay * 2^attempt scaled by a jitter in [0.5, 1).
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.retryDelay) * math.Pow(2, float64(attempt))
	return time.Duration(base * (0.5 + rand.Float64()*0.5))
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.tokens.GenerateToken(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrTransientFailure, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return &StatusError{StatusCode: resp.StatusCode, Err: ErrTransientFailure}
	case resp.StatusCode >= 400:
		return &StatusError{StatusCode: resp.StatusCode, Err: ErrRejected}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{StatusCode: resp.StatusCode, Err: ErrInvalidResponse}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty body", ErrInvalidResponse)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
