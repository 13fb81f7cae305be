package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mmynk/dinevote/internal/models"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Millisecond
	DefaultMaxDelay    = 50 * time.Millisecond
)

// RetryPolicy bounds how often MutatePlan re-runs after a version conflict.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int

	// BaseDelay is the first backoff; it doubles on every retry up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// OnConflict, if set, is called every time a write loses the race.
	OnConflict func(planID string, attempt int)
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay < base {
		maxDelay = base
	}

	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithCappedDuration(maxDelay, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// LoadFunc reads the latest committed snapshot of a plan.
type LoadFunc func(ctx context.Context, planID string) (*models.Plan, error)

// CommitFunc writes next if the stored version still equals expected.
// It returns false, nil when another writer won.
type CommitFunc func(ctx context.Context, next *models.Plan, expected int64) (bool, error)

// Mutate runs the optimistic read-modify-write loop shared by every backend:
// load a snapshot, apply fn to a copy, compare-and-swap on Version.
func (p RetryPolicy) Mutate(ctx context.Context, planID string, load LoadFunc, commit CommitFunc, fn MutateFunc) (*models.Plan, error) {
	var result *models.Plan
	attempt := 0

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++

		current, err := load(ctx, planID)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, ErrUnchanged) {
				result = current
				return nil
			}
			return err
		}

		if err := next.CheckInvariants(); err != nil {
			return fmt.Errorf("mutation of plan %s rejected: %w", planID, err)
		}

		next.ID = current.ID
		next.CreatedBy = current.CreatedBy
		next.CreatedAt = current.CreatedAt
		if next.UpdatedAt.Before(current.UpdatedAt) {
			next.UpdatedAt = current.UpdatedAt
		}
		next.Version = current.Version + 1

		ok, err := commit(ctx, next, current.Version)
		if err != nil {
			return err
		}
		if !ok {
			slog.Debug("Plan write lost race", "plan_id", planID, "attempt", attempt)
			if p.OnConflict != nil {
				p.OnConflict(planID, attempt)
			}
			return retry.RetryableError(models.Errorf(models.ErrConflict,
				"plan %s was modified concurrently (%d attempts)", planID, attempt))
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
