package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/phrazzld/tempo/internal/timer"
)

// SessionHandler serves the reference session endpoint: it opens and closes
// the sessions the engine records for each timer run, and answers category
// rate lookups.
type SessionHandler struct {
	sessions store.SessionStore
	db       *sql.DB
	rates    timer.RateLookup
	now      func() time.Time
	logger   *slog.Logger
}

// SessionHandlerOption configures a SessionHandler.
type SessionHandlerOption func(*SessionHandler)

// WithTransactions runs the end-of-session read and update in one
// transaction on db.
func WithTransactions(db *sql.DB) SessionHandlerOption {
	return func(h *SessionHandler) {
		h.db = db
	}
}

// WithSessionClock replaces time.Now, for tests.
func WithSessionClock(now func() time.Time) SessionHandlerOption {
	return func(h *SessionHandler) {
		h.now = now
	}
}

// NewSessionHandler creates a SessionHandler. A nil rates lookup answers
// every rate request with 404.
func NewSessionHandler(
	sessions store.SessionStore,
	rates timer.RateLookup,
	logger *slog.Logger,
	opts ...SessionHandlerOption,
) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if rates == nil {
		rates = timer.StaticRates(nil)
	}
	h := &SessionHandler{
		sessions: sessions,
		rates:    rates,
		now:      time.Now,
		logger:   logger.With("component", "session_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the session endpoint on r. Callers apply authentication.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{id}", h.Get)
	r.Post("/sessions/{id}/end", h.End)
	r.Get("/categories/{id}/rate", h.Rate)
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		HandleAPIError(w, r, ErrUnauthorized, "")
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.UserID != "" && req.UserID != userID {
		HandleAPIError(w, r, ErrForbidden, "")
		return
	}

	session := &store.Session{
		ID:         uuid.New(),
		TaskID:     req.TaskID,
		UserID:     userID,
		HourlyRate: req.HourlyRate,
		StartedAt:  h.now().UTC(),
	}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Info("session started",
		"session_id", session.ID,
		"task_id", session.TaskID,
		"user_id", userID)
	shared.RespondWithJSON(w, r, http.StatusCreated, StartSessionResponse{SessionID: session.ID.String()})
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		HandleAPIError(w, r, ErrUnauthorized, "")
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	session, err := h.sessions.GetByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if session.UserID != userID {
		HandleAPIError(w, r, ErrForbidden, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toSessionResponse(session))
}

// End handles POST /api/sessions/{id}/end.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		HandleAPIError(w, r, ErrUnauthorized, "")
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req EndSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.SessionID != "" && req.SessionID != id.String() {
		HandleAPIError(w, r, fmt.Errorf("%w: session id mismatch", ErrInvalidRequest), "")
		return
	}
	action := req.Action
	if action == "" {
		action = timer.EndActionStop
	}

	endFn := func(ctx context.Context, sessions store.SessionStore) (*store.Session, error) {
		existing, err := sessions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, ErrForbidden
		}
		return sessions.End(ctx, id, action, h.now().UTC())
	}

	var ended *store.Session
	if h.db != nil {
		err = store.RunInTransaction(r.Context(), h.db, func(ctx context.Context, tx *sql.Tx) error {
			var txErr error
			ended, txErr = endFn(ctx, h.sessions.WithTx(tx))
			return txErr
		})
	} else {
		ended, err = endFn(r.Context(), h.sessions)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Info("session ended",
		"session_id", ended.ID,
		"task_id", ended.TaskID,
		"action", ended.EndAction)
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "ok"})
}

// Rate handles GET /api/categories/{id}/rate.
func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getPathParam(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rate, found := h.rates.ResolveRate(r.Context(), categoryID)
	if !found {
		HandleAPIError(w, r, fmt.Errorf("%w: rate for category", store.ErrNotFound), "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, RateResponse{CategoryID: categoryID, HourlyRate: &rate})
}

// SessionResponse is the JSON view of a stored session.
type SessionResponse struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	UserID     string     `json:"user_id"`
	HourlyRate float64    `json:"hourly_rate"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	EndAction  string     `json:"end_action,omitempty"`
}

func toSessionResponse(s *store.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID.String(),
		TaskID:     s.TaskID,
		UserID:     s.UserID,
		HourlyRate: s.HourlyRate,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		EndAction:  s.EndAction,
	}
}
