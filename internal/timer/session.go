package timer

import (
	"context"
)

// EndActionStop is the action sent when a run is finished.
const EndActionStop = "stop"

// StartSessionRequest asks the session endpoint to open a session for a run.
type StartSessionRequest struct {
	TaskID     string  `json:"task_id"`
	UserID     string  `json:"user_id"`
	HourlyRate float64 `json:"hourly_rate"`
}

// EndSessionRequest closes a session previously opened with StartSession.
type EndSessionRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
}

// SessionClient records finished runs on an external session endpoint.
type SessionClient interface {
	// StartSession opens a session and returns its opaque id.
	StartSession(ctx context.Context, req StartSessionRequest) (string, error)

	// EndSession closes the session.
	EndSession(ctx context.Context, req EndSessionRequest) error
}

// RateLookup resolves the hourly rate of a category.
type RateLookup interface {
	// ResolveRate returns the rate for categoryID. The boolean is false when
	// no rate is known; lookups never fail the caller.
	ResolveRate(ctx context.Context, categoryID string) (float64, bool)
}

// StaticRates is a RateLookup backed by a fixed map of category id to rate.
type StaticRates map[string]float64

// ResolveRate implements RateLookup.
func (s StaticRates) ResolveRate(_ context.Context, categoryID string) (float64, bool) {
	rate, ok := s[categoryID]
	if !ok || rate < 0 {
		return 0, false
	}
	return rate, true
}

// ChainRates consults each lookup in order and returns the first hit.
type ChainRates []RateLookup

// ResolveRate implements RateLookup.
func (c ChainRates) ResolveRate(ctx context.Context, categoryID string) (float64, bool) {
	for _, lookup := range c {
		if lookup == nil {
			continue
		}
		if rate, ok := lookup.ResolveRate(ctx, categoryID); ok {
			return rate, true
		}
	}
	return 0, false
}
