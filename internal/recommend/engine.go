package recommend

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/ledger"
)

// ReasonDailyLimit is the reason given for every task while the hard daily
// expenditure limit is crossed.
const ReasonDailyLimit = "daily limit reached"

// EnergySnapshot is the part of the ledger the engine reads.
type EnergySnapshot struct {
	Current float64       `json:"current_energy"`
	Max     float64       `json:"max_energy"`
	Limits  ledger.Limits `json:"limits"`
}

// Options tune a single Recommend call.
type Options struct {
	// Limit caps each list. Zero or negative means no cap.
	Limit int
}

// Item is one ranked task with its energy figures.
type Item struct {
	Task          domain.Task `json:"task"`
	EstimatedCost float64     `json:"estimated_cost"`
	NetImpact     float64     `json:"net_impact"`
	Reason        string      `json:"reason"`
}

// Recommendation partitions tasks into those the balance covers and those it
// does not.
type Recommendation struct {
	Affordable      []Item  `json:"affordable"`
	ExceedsCapacity []Item  `json:"exceeds_capacity"`
	CurrentEnergy   float64 `json:"current_energy"`
	MaxEnergy       float64 `json:"max_energy"`
	Blocked         bool    `json:"blocked"`
	Warning         string  `json:"warning,omitempty"`
}

// Engine produces recommendations using an energy calculator.
type Engine struct {
	calc   energy.Calculator
	logger *slog.Logger
}

// NewEngine creates an engine. A nil calculator uses the default parameters.
func NewEngine(calc energy.Calculator, logger *slog.Logger) *Engine {
	if calc == nil {
		calc = energy.NewDefaultCalculator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		calc:   calc,
		logger: logger.With("component", "recommendation_engine"),
	}
}

// Recommend ranks tasks against the snapshot. Tasks in the final workflow
// column are skipped. Within each list tasks are ordered by priority (high
// first), then due date (earliest first, undated last), then title and id.
func (e *Engine) Recommend(tasks []domain.Task, snapshot EnergySnapshot, opts Options) Recommendation {
	rec := Recommendation{
		Affordable:      []Item{},
		ExceedsCapacity: []Item{},
		CurrentEnergy:   snapshot.Current,
		MaxEnergy:       snapshot.Max,
	}

	final := e.calc.Params().FinalColumn()
	hard := snapshot.Limits.HardExceeded()
	if hard {
		rec.Blocked = true
		rec.Warning = "hard daily expenditure limit reached, rest before starting new work"
	} else if snapshot.Limits.SoftExceeded() {
		rec.Warning = "soft daily expenditure limit crossed, prefer low-cost tasks"
	}

	for _, task := range tasks {
		if task.Column == final {
			continue
		}
		start := e.calc.StartCost(task)
		reward := e.calc.CompletionReward(task)
		item := Item{
			Task:          task,
			EstimatedCost: math.Abs(start.Delta),
			NetImpact:     start.Delta + reward.Delta,
		}

		switch {
		case hard:
			item.Reason = ReasonDailyLimit
			rec.ExceedsCapacity = append(rec.ExceedsCapacity, item)
		case item.EstimatedCost <= snapshot.Current:
			item.Reason = start.Explanation
			rec.Affordable = append(rec.Affordable, item)
		default:
			item.Reason = "not enough energy: " + start.Explanation
			rec.ExceedsCapacity = append(rec.ExceedsCapacity, item)
		}
	}

	sortItems(rec.Affordable)
	sortItems(rec.ExceedsCapacity)
	if opts.Limit > 0 {
		rec.Affordable = truncate(rec.Affordable, opts.Limit)
		rec.ExceedsCapacity = truncate(rec.ExceedsCapacity, opts.Limit)
	}

	e.logger.Debug("recommendations computed",
		"tasks", len(tasks),
		"affordable", len(rec.Affordable),
		"exceeds_capacity", len(rec.ExceedsCapacity),
		"blocked", rec.Blocked)
	return rec
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i].Task, items[j].Task)
	})
}

func less(a, b domain.Task) bool {
	if ra, rb := a.EffectivePriority().Rank(), b.EffectivePriority().Rank(); ra != rb {
		return ra > rb
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
	case a.DueDate != nil:
		return true
	case b.DueDate != nil:
		return false
	}
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func truncate(items []Item, n int) []Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}
