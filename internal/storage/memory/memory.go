// Package memory provides an in-process implementation of storage.PlanStore.
// It is used for tests and for running the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/storage"
)

// Ensure Store implements storage.PlanStore
var _ storage.PlanStore = (*Store)(nil)

// Store keeps plans in a map. Every read and write goes through Clone so
// callers never share memory with the stored copy.
type Store struct {
	mu     sync.RWMutex
	plans  map[string]*models.Plan
	policy storage.RetryPolicy
}

// New creates an empty Store using the given retry policy.
func New(policy storage.RetryPolicy) *Store {
	return &Store{
		plans:  make(map[string]*models.Plan),
		policy: policy,
	}
}

// CreatePlan stores a new plan.
func (s *Store) CreatePlan(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = plan.CreatedAt
	}
	plan.Status = models.StatusPlanning
	plan.Version = 1

	if err := plan.CheckInvariants(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.ID]; exists {
		return models.Errorf(models.ErrConflict, "plan %s already exists", plan.ID)
	}
	s.plans[plan.ID] = plan.Clone()
	return nil
}

// GetPlan returns a copy of the stored plan.
func (s *Store) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planID]
	if !ok {
		return nil, models.Errorf(models.ErrNotFound, "plan %s", planID)
	}
	return plan.Clone(), nil
}

// MutatePlan applies fn with optimistic concurrency.
// fn runs outside the lock; only the version check and swap are serialized.
func (s *Store) MutatePlan(ctx context.Context, planID string, fn storage.MutateFunc) (*models.Plan, error) {
	return s.policy.Mutate(ctx, planID, s.GetPlan, s.commit, fn)
}

func (s *Store) commit(ctx context.Context, next *models.Plan, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.plans[next.ID]
	if !ok {
		return false, models.Errorf(models.ErrNotFound, "plan %s", next.ID)
	}
	if stored.Version != expected {
		return false, nil
	}
	s.plans[next.ID] = next.Clone()
	return true, nil
}

// ListPlansByCreator returns plans created by userID, newest first.
func (s *Store) ListPlansByCreator(ctx context.Context, userID string) ([]*models.Plan, error) {
	return s.list(func(p *models.Plan) bool { return p.CreatedBy == userID }), nil
}

// ListPlansByParticipant returns plans whose roster contains userID, newest first.
func (s *Store) ListPlansByParticipant(ctx context.Context, userID string) ([]*models.Plan, error) {
	return s.list(func(p *models.Plan) bool { return p.IsParticipant(userID) }), nil
}

func (s *Store) list(match func(*models.Plan) bool) []*models.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plans []*models.Plan
	for _, p := range s.plans {
		if match(p) {
			plans = append(plans, p.Clone())
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
