// Package storage provides abstractions for persistent plan storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/dinevote/internal/models"
)

// ErrUnchanged may be returned by a MutateFunc to signal that the plan needs no
// write. MutatePlan then returns the loaded snapshot without bumping its version.
var ErrUnchanged = errors.New("plan unchanged")

// MutateFunc edits a private copy of a plan in place.
// It may run more than once for a single MutatePlan call when writers race,
// so it must derive everything from the plan it is given.
type MutateFunc func(plan *models.Plan) error

// PlanStore defines the interface for plan storage operations.
// This abstraction allows swapping storage backends (memory, SQLite, PostgreSQL)
// without changing the planning engine.
type PlanStore interface {
	// CreatePlan persists a new plan. The store assigns ID (if empty),
	// sets Status to planning, Version to 1 and the timestamps if zero.
	CreatePlan(ctx context.Context, plan *models.Plan) error

	// GetPlan retrieves a consistent snapshot of a plan.
	// Returns an error wrapping models.ErrNotFound if it does not exist.
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)

	// MutatePlan applies fn to the latest snapshot and persists the result only
	// if no other write landed in between. Conflicts are retried per the
	// store's RetryPolicy; exhaustion returns an error wrapping models.ErrConflict.
	// Errors from fn are returned as-is and never retried.
	MutatePlan(ctx context.Context, planID string, fn MutateFunc) (*models.Plan, error)

	// ListPlansByCreator returns plans created by userID, newest first.
	ListPlansByCreator(ctx context.Context, userID string) ([]*models.Plan, error)

	// ListPlansByParticipant returns plans whose roster contains userID, newest first.
	ListPlansByParticipant(ctx context.Context, userID string) ([]*models.Plan, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
