// Package planning implements the plan lifecycle: membership, option proposals,
// voting and finalization.
//
// The Engine holds no plan state of its own. Every action loads a snapshot from
// the storage.PlanStore, checks it, and writes it back through MutatePlan so
// that concurrent actions on one plan are serialized by the store's
// compare-and-swap. Checks always run in the same order:
//
//  1. input validation (models.ErrValidation)
//  2. plan lookup (models.ErrNotFound)
//  3. authorization (models.ErrForbidden)
//  4. plan status (models.ErrInvalidState)
//  5. business preconditions (models.ErrPreconditionFailed, or
//     models.ErrNotFound for unknown option references)
package planning

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/storage"
)

// DefaultDisplayName is used for callers whose token carries no display name.
const DefaultDisplayName = "Creator"

// Engine coordinates plan actions on top of a PlanStore.
type Engine struct {
	store    storage.PlanStore
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store storage.PlanStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		validate: newValidator(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

func requireCaller(caller models.Identity) error {
	if caller.UserID == "" {
		return models.Errorf(models.ErrForbidden, "caller identity is required")
	}
	return nil
}

func requireCreator(plan *models.Plan, caller models.Identity, action string) error {
	if !plan.IsCreator(caller.UserID) {
		return models.Errorf(models.ErrForbidden, "only the plan creator can %s", action)
	}
	return nil
}

func requireMember(plan *models.Plan, caller models.Identity) error {
	if !plan.IsCreator(caller.UserID) && !plan.IsParticipant(caller.UserID) {
		return models.Errorf(models.ErrForbidden, "user %s is not a participant of plan %s", caller.UserID, plan.ID)
	}
	return nil
}

func requireStatus(plan *models.Plan, action string, allowed ...models.PlanStatus) error {
	for _, s := range allowed {
		if plan.Status == s {
			return nil
		}
	}
	return models.Errorf(models.ErrInvalidState, "cannot %s while plan is %s", action, plan.Status)
}
