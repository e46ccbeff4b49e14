package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/recommend"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/timer"
)

// TimerRegistry is the part of the timer registry the handlers call directly.
type TimerRegistry interface {
	Get(taskID string) (timer.Entry, bool)
	Export() []timer.Entry
	TotalEarnings() float64
	TotalActiveTimers() int
	Ticking() bool

	Pause(ctx context.Context, taskID string) (timer.Entry, bool)
	Resume(ctx context.Context, taskID string) (timer.Entry, bool)
	Reset(ctx context.Context, taskID string) (timer.Entry, bool)
	Delete(ctx context.Context, taskID string) (timer.Entry, bool)

	PauseAll(ctx context.Context) []timer.Entry
	ResumeAll(ctx context.Context) []timer.Entry
	StopAll(ctx context.Context) []timer.Entry
	ResetAll(ctx context.Context) []timer.Entry
	DeleteAll(ctx context.Context) int
}

// Workflow is the set of energy-aware task operations.
type Workflow interface {
	StartTask(ctx context.Context, task domain.Task) (service.StartResult, error)
	StopTimer(ctx context.Context, taskID string) (service.StopResult, error)
	MoveTask(ctx context.Context, task domain.Task, from, to domain.Column) (ledger.Result, error)
	CompleteTask(ctx context.Context, task domain.Task) (service.CompleteResult, error)
	Adjust(ctx context.Context, req service.AdjustRequest) (ledger.Result, error)
	Preview(ctx context.Context, req service.PreviewRequest) (energy.Summary, error)
	Recommend(ctx context.Context, tasks []domain.Task, limit int) recommend.Recommendation
	Energy() service.Status
}

// Compile-time checks that the concrete components satisfy the interfaces
var (
	_ TimerRegistry = (*timer.Registry)(nil)
	_ Workflow      = (*service.Workflow)(nil)
)

// TimerHandler serves the /api/timers routes.
type TimerHandler struct {
	timers   TimerRegistry
	workflow Workflow
	logger   *slog.Logger
}

// NewTimerHandler creates a TimerHandler.
func NewTimerHandler(timers TimerRegistry, workflow Workflow, logger *slog.Logger) *TimerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerHandler{
		timers:   timers,
		workflow: workflow,
		logger:   logger.With("component", "timer_handler"),
	}
}

// Routes mounts the handler on r.
func (h *TimerHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.DeleteAll)
	r.Post("/start", h.Start)
	r.Post("/pause-all", h.bulk(TimerRegistry.PauseAll))
	r.Post("/resume-all", h.bulk(TimerRegistry.ResumeAll))
	r.Post("/stop-all", h.bulk(TimerRegistry.StopAll))
	r.Post("/reset-all", h.bulk(TimerRegistry.ResetAll))

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.single(TimerRegistry.Delete))
		r.Post("/pause", h.single(TimerRegistry.Pause))
		r.Post("/resume", h.single(TimerRegistry.Resume))
		r.Post("/reset", h.single(TimerRegistry.Reset))
		r.Post("/stop", h.Stop)
	})
}

// List handles GET /api/timers.
func (h *TimerHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.timers.Export()
	if entries == nil {
		entries = []timer.Entry{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TimersResponse{
		Timers:        entries,
		TotalEarnings: h.timers.TotalEarnings(),
		ActiveTimers:  h.timers.TotalActiveTimers(),
	})
}

// Get handles GET /api/timers/{taskID}.
func (h *TimerHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathParam(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	entry, ok := h.timers.Get(taskID)
	if !ok {
		HandleAPIError(w, r, service.ErrTimerNotFound, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// Start handles POST /api/timers/start. A fresh run is charged the start cost.
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartTimerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.workflow.StartTask(r.Context(), req.Task.ToDomain())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Stop handles POST /api/timers/{taskID}/stop and applies the focus reward.
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathParam(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.workflow.StopTimer(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// single adapts a per-task registry transition. A missing timer is 404 and
// a transition that does not apply to the current state is 409.
func (h *TimerHandler) single(
	op func(TimerRegistry, context.Context, string) (timer.Entry, bool),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := getPathParam(r, "taskID")
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		entry, changed := op(h.timers, r.Context(), taskID)
		if !changed {
			if entry.TaskID == "" {
				HandleAPIError(w, r, service.ErrTimerNotFound, "")
				return
			}
			HandleAPIError(w, r, ErrTimerStateConflict, "")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, entry)
	}
}

// bulk adapts a registry operation applied to every timer.
func (h *TimerHandler) bulk(op func(TimerRegistry, context.Context) []timer.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed := op(h.timers, r.Context())
		if changed == nil {
			changed = []timer.Entry{}
		}
		h.logger.Debug("bulk timer operation", "path", r.URL.Path, "changed", len(changed))
		shared.RespondWithJSON(w, r, http.StatusOK, BulkTimersResponse{Timers: changed, Count: len(changed)})
	}
}

// DeleteAll handles DELETE /api/timers.
func (h *TimerHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n := h.timers.DeleteAll(r.Context())
	shared.RespondWithJSON(w, r, http.StatusOK, DeletedResponse{Deleted: n})
}
