package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/recommend"
	"github.com/phrazzld/tempo/internal/timer"
)

// Timers is the part of the timer registry the workflow drives.
type Timers interface {
	// StartRun begins or resumes a timer for the task; the boolean is true
	// only when a fresh run began
	StartRun(ctx context.Context, task domain.Task) (timer.Entry, bool, error)

	// Stop freezes a live timer; the boolean is false when nothing changed
	Stop(ctx context.Context, taskID string) (timer.Entry, bool)

	// Get returns the current entry for a task
	Get(taskID string) (timer.Entry, bool)
}

// EnergyLedger is the part of the ledger the workflow drives.
type EnergyLedger interface {
	Apply(ctx context.Context, tx domain.EnergyTransaction) ledger.Result
	State() ledger.State
	CheckLimits() ledger.Limits
}

// Compile-time checks that the concrete components satisfy the interfaces
var (
	_ Timers       = (*timer.Registry)(nil)
	_ EnergyLedger = (*ledger.Ledger)(nil)
)

// StartResult is the outcome of StartTask. Energy is nil when the timer was
// already live and nothing was charged.
type StartResult struct {
	Entry  timer.Entry    `json:"timer"`
	Energy *ledger.Result `json:"energy,omitempty"`
}

// StopResult is the outcome of StopTimer. Focus is nil when the session was
// shorter than one focus increment.
type StopResult struct {
	Entry timer.Entry    `json:"timer"`
	Focus *ledger.Result `json:"focus_reward,omitempty"`
}

// CompleteResult is the outcome of CompleteTask. Stopped is nil when the task
// had no live timer.
type CompleteResult struct {
	Stopped    *StopResult   `json:"stopped,omitempty"`
	Completion ledger.Result `json:"completion"`
}

// AdjustRequest is a manual correction of the balance.
type AdjustRequest struct {
	Delta  float64
	Note   string
	TaskID string
}

// PreviewRequest describes a hypothetical operation.
type PreviewRequest struct {
	Task            domain.Task
	Operation       energy.Operation
	FromColumn      domain.Column
	ToColumn        domain.Column
	DurationMinutes float64
}

// Status is the ledger state together with today's limits.
type Status struct {
	State  ledger.State  `json:"state"`
	Limits ledger.Limits `json:"limits"`
}

// Workflow coordinates timers and energy for task operations.
type Workflow struct {
	timers Timers
	ledger EnergyLedger
	calc   energy.Calculator
	engine *recommend.Engine
	logger *slog.Logger
}

// NewWorkflow creates a Workflow. A nil calculator uses the default
// parameters; timers and ledger are required.
func NewWorkflow(
	timers Timers,
	energyLedger EnergyLedger,
	calc energy.Calculator,
	logger *slog.Logger,
) (*Workflow, error) {
	if timers == nil {
		return nil, fmt.Errorf("%w: timers cannot be nil", ErrMissingDependency)
	}
	if energyLedger == nil {
		return nil, fmt.Errorf("%w: ledger cannot be nil", ErrMissingDependency)
	}
	if calc == nil {
		calc = energy.NewDefaultCalculator()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{
		timers: timers,
		ledger: energyLedger,
		calc:   calc,
		engine: recommend.NewEngine(calc, logger),
		logger: logger.With(slog.String("component", "workflow")),
	}, nil
}

// StartTask starts the task's timer. A fresh run is charged the start cost;
// resuming a paused timer or starting a running one costs nothing.
func (w *Workflow) StartTask(ctx context.Context, task domain.Task) (StartResult, error) {
	if err := task.Validate(); err != nil {
		return StartResult{}, NewWorkflowError("start", "invalid task", err)
	}

	entry, fresh, err := w.timers.StartRun(ctx, task)
	if err != nil {
		return StartResult{}, NewWorkflowError("start", "failed to start timer", err)
	}

	res := StartResult{Entry: entry}
	if fresh {
		impact := w.calc.StartCost(task)
		applied := w.apply(ctx, domain.TransactionTaskStart, &task, impact, nil)
		res.Energy = &applied
	}

	w.logger.Info("task started",
		"task_id", task.ID,
		"fresh", fresh,
		"elapsed_seconds", entry.ElapsedSeconds)
	return res, nil
}

// MoveTask charges or rewards a column move.
func (w *Workflow) MoveTask(ctx context.Context, task domain.Task, from, to domain.Column) (ledger.Result, error) {
	if err := task.Validate(); err != nil {
		return ledger.Result{}, NewWorkflowError("move", "invalid task", err)
	}
	if from == to {
		return ledger.Result{}, NewWorkflowError("move", string(to), ErrSameColumn)
	}

	impact := w.calc.MoveImpact(task, from, to)
	res := w.apply(ctx, domain.TransactionTaskMove, &task, impact, func(tx *domain.EnergyTransaction) {
		tx.Metadata.FromColumn = from
		tx.Metadata.ToColumn = to
	})

	w.logger.Info("task moved",
		"task_id", task.ID,
		"from", from,
		"to", to,
		"delta", res.Transaction.AppliedDelta)
	return res, nil
}

// StopTimer stops a live timer and rewards every completed focus increment
// of its elapsed time.
func (w *Workflow) StopTimer(ctx context.Context, taskID string) (StopResult, error) {
	entry, changed := w.timers.Stop(ctx, taskID)
	if !changed {
		if entry.TaskID == "" {
			return StopResult{}, NewWorkflowError("stop", taskID, ErrTimerNotFound)
		}
		return StopResult{}, NewWorkflowError("stop", taskID, ErrTimerNotActive)
	}

	res := StopResult{Entry: entry}
	minutes := entry.ElapsedMinutes()
	impact := w.calc.FocusReward(minutes)
	if impact.Delta > 0 {
		task := entry.Task
		applied := w.apply(ctx, domain.TransactionFocusSession, &task, impact, func(tx *domain.EnergyTransaction) {
			tx.Metadata.SessionDurationMinutes = minutes
		})
		res.Focus = &applied
	}

	w.logger.Info("timer stopped",
		"task_id", taskID,
		"elapsed_seconds", entry.ElapsedSeconds,
		"earnings", entry.SessionEarnings,
		"focus_reward", impact.Delta)
	return res, nil
}

// CompleteTask stops the task's live timer, if any, and applies the
// completion reward.
func (w *Workflow) CompleteTask(ctx context.Context, task domain.Task) (CompleteResult, error) {
	if err := task.Validate(); err != nil {
		return CompleteResult{}, NewWorkflowError("complete", "invalid task", err)
	}

	var res CompleteResult
	if e, ok := w.timers.Get(task.ID); ok && e.State.IsLive() {
		stopped, err := w.StopTimer(ctx, task.ID)
		if err != nil {
			return CompleteResult{}, err
		}
		res.Stopped = &stopped
	}

	impact := w.calc.CompletionReward(task)
	res.Completion = w.apply(ctx, domain.TransactionTaskComplete, &task, impact, nil)

	w.logger.Info("task completed",
		"task_id", task.ID,
		"reward", res.Completion.Transaction.AppliedDelta,
		"current_energy", res.Completion.Energy)
	return res, nil
}

// Adjust applies a manual correction.
func (w *Workflow) Adjust(ctx context.Context, req AdjustRequest) (ledger.Result, error) {
	if math.IsNaN(req.Delta) || math.IsInf(req.Delta, 0) {
		return ledger.Result{}, NewWorkflowError("adjust", "invalid delta", ErrInvalidAdjustment)
	}

	tx := domain.NewEnergyTransaction(domain.TransactionManualAdjust, nil, req.Delta)
	tx.TaskID = req.TaskID
	tx.Metadata.Note = req.Note
	res := w.ledger.Apply(ctx, tx)

	w.logger.Info("energy adjusted manually",
		"requested", req.Delta,
		"applied", res.Transaction.AppliedDelta,
		"current_energy", res.Energy)
	return res, nil
}

// Preview reports what an operation would do without applying it.
func (w *Workflow) Preview(ctx context.Context, req PreviewRequest) (energy.Summary, error) {
	if !req.Operation.IsValid() {
		return energy.Summary{}, NewWorkflowError("preview", string(req.Operation), ErrInvalidOperation)
	}
	if req.Operation != energy.OperationFocus {
		if err := req.Task.Validate(); err != nil {
			return energy.Summary{}, NewWorkflowError("preview", "invalid task", err)
		}
	}

	state := w.ledger.State()
	return w.calc.Summary(energy.SummaryRequest{
		Task:            req.Task,
		Operation:       req.Operation,
		FromColumn:      req.FromColumn,
		ToColumn:        req.ToColumn,
		DurationMinutes: req.DurationMinutes,
		CurrentEnergy:   state.CurrentEnergy,
		MaxEnergy:       state.MaxEnergy,
	}), nil
}

// Recommend ranks tasks against the current balance and limits.
func (w *Workflow) Recommend(ctx context.Context, tasks []domain.Task, limit int) recommend.Recommendation {
	state := w.ledger.State()
	return w.engine.Recommend(tasks, recommend.EnergySnapshot{
		Current: state.CurrentEnergy,
		Max:     state.MaxEnergy,
		Limits:  w.ledger.CheckLimits(),
	}, recommend.Options{Limit: limit})
}

// Energy returns the ledger state and today's limits.
func (w *Workflow) Energy() Status {
	return Status{State: w.ledger.State(), Limits: w.ledger.CheckLimits()}
}

func (w *Workflow) apply(
	ctx context.Context,
	txType domain.TransactionType,
	task *domain.Task,
	impact energy.Impact,
	decorate func(tx *domain.EnergyTransaction),
) ledger.Result {
	tx := domain.NewEnergyTransaction(txType, task, impact.Delta)
	tx.Metadata.Note = impact.Explanation
	if decorate != nil {
		decorate(&tx)
	}
	return w.ledger.Apply(ctx, tx)
}
