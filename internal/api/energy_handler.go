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
	"github.com/phrazzld/tempo/internal/service"
)

// WeeklyResetter clears the weekly statistics of the ledger.
type WeeklyResetter interface {
	ResetWeeklyStats(ctx context.Context) ledger.WeeklyStats
}

var _ WeeklyResetter = (*ledger.Ledger)(nil)

// EnergyHandler serves the /api/energy and /api/recommendations routes.
type EnergyHandler struct {
	workflow Workflow
	weekly   WeeklyResetter
	logger   *slog.Logger
}

// NewEnergyHandler creates an EnergyHandler.
func NewEnergyHandler(workflow Workflow, weekly WeeklyResetter, logger *slog.Logger) *EnergyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnergyHandler{
		workflow: workflow,
		weekly:   weekly,
		logger:   logger.With("component", "energy_handler"),
	}
}

// Routes mounts the energy routes on r.
func (h *EnergyHandler) Routes(r chi.Router) {
	r.Get("/", h.Status)
	r.Get("/limits", h.Limits)
	r.Post("/move", h.Move)
	r.Post("/complete", h.Complete)
	r.Post("/adjust", h.Adjust)
	r.Post("/preview", h.Preview)
	r.Post("/weekly-reset", h.WeeklyReset)
}

// Status handles GET /api/energy.
func (h *EnergyHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.workflow.Energy())
}

// Limits handles GET /api/energy/limits.
func (h *EnergyHandler) Limits(w http.ResponseWriter, r *http.Request) {
	limits := h.workflow.Energy().Limits
	shared.RespondWithJSON(w, r, http.StatusOK, LimitsResponse{
		Limits:       limits,
		SoftExceeded: limits.SoftExceeded(),
		HardExceeded: limits.HardExceeded(),
	})
}

// Move handles POST /api/energy/move.
func (h *EnergyHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.workflow.MoveTask(r.Context(), req.Task.ToDomain(), domain.Column(req.From), domain.Column(req.To))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Complete handles POST /api/energy/complete.
func (h *EnergyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.workflow.CompleteTask(r.Context(), req.Task.ToDomain())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Adjust handles POST /api/energy/adjust.
func (h *EnergyHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustEnergyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.workflow.Adjust(r.Context(), service.AdjustRequest{
		Delta:  *req.Delta,
		Note:   req.Note,
		TaskID: req.TaskID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Preview handles POST /api/energy/preview. Nothing is applied.
func (h *EnergyHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	preview := service.PreviewRequest{
		Operation:       energy.Operation(req.Operation),
		FromColumn:      domain.Column(req.From),
		ToColumn:        domain.Column(req.To),
		DurationMinutes: req.DurationMinutes,
	}
	if req.Task != nil {
		preview.Task = req.Task.ToDomain()
	}

	summary, err := h.workflow.Preview(r.Context(), preview)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// WeeklyReset handles POST /api/energy/weekly-reset.
func (h *EnergyHandler) WeeklyReset(w http.ResponseWriter, r *http.Request) {
	previous := h.weekly.ResetWeeklyStats(r.Context())
	h.logger.Info("weekly stats reset",
		"energy_spent", previous.EnergySpent,
		"tasks_completed", previous.TasksCompleted)
	shared.RespondWithJSON(w, r, http.StatusOK, WeeklyResetResponse{Previous: previous})
}

// Recommend handles POST /api/recommendations.
func (h *EnergyHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tasks := make([]domain.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, t.ToDomain())
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.workflow.Recommend(r.Context(), tasks, req.Limit))
}
