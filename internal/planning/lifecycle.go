package planning

import (
	"context"
	"strings"

	"github.com/mmynk/dinevote/internal/models"
)

// transition is one edge of the plan state machine.
type transition struct {
	From models.PlanStatus
	To   models.PlanStatus
}

// transitions is the complete state machine. Finalized and cancelled have no
// outgoing edges.
var transitions = []transition{
	{From: models.StatusPlanning, To: models.StatusVoting},
	{From: models.StatusPlanning, To: models.StatusCancelled},
	{From: models.StatusVoting, To: models.StatusFinalized},
	{From: models.StatusVoting, To: models.StatusCancelled},
}

var transitionSet = func() map[transition]bool {
	m := make(map[transition]bool, len(transitions))
	for _, t := range transitions {
		m[t] = true
	}
	return m
}()

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s models.PlanStatus) []models.PlanStatus {
	var next []models.PlanStatus
	for _, t := range transitions {
		if t.From == s {
			next = append(next, t.To)
		}
	}
	return next
}

// CanTransition returns ErrInvalidState unless from → to is an edge of the state machine.
func CanTransition(from, to models.PlanStatus) error {
	if transitionSet[transition{From: from, To: to}] {
		return nil
	}

	valid := "none (terminal state)"
	if next := NextStatuses(from); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		valid = strings.Join(names, ", ")
	}
	return models.Errorf(models.ErrInvalidState,
		"cannot move plan from %s to %s; valid next states: %s", from, to, valid)
}

// Role selects which plans ListPlans returns.
type Role string

const (
	RoleCreated       Role = "created"
	RoleParticipating Role = "participating"
)

// CreatePlan starts a new plan in the planning state with the caller as creator
// and first participant.
func (e *Engine) CreatePlan(ctx context.Context, caller models.Identity, in CreatePlanInput) (*models.Plan, error) {
	if err := e.check(in); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	name := caller.Name(DefaultDisplayName)
	if err := e.check(profileInput{DisplayName: name}); err != nil {
		return nil, err
	}

	now := e.clock()
	plan := &models.Plan{
		CreatedBy:   caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPlanning,
		Participants: []models.Participant{
			{
				UserID:      caller.UserID,
				DisplayName: name,
				JoinedAt:    now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	e.logger.Info("Plan created", "plan_id", plan.ID, "created_by", plan.CreatedBy)
	return plan, nil
}

// GetPlan returns a plan the caller created or participates in.
func (e *Engine) GetPlan(ctx context.Context, caller models.Identity, planID string) (*models.Plan, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	plan, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(plan, caller); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns the caller's plans, newest first. An empty role means
// RoleParticipating, which includes the plans the caller created.
func (e *Engine) ListPlans(ctx context.Context, caller models.Identity, role Role) ([]*models.Plan, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	switch role {
	case RoleCreated:
		return e.store.ListPlansByCreator(ctx, caller.UserID)
	case RoleParticipating, "":
		return e.store.ListPlansByParticipant(ctx, caller.UserID)
	default:
		return nil, models.Errorf(models.ErrValidation, "role must be %q or %q", RoleCreated, RoleParticipating)
	}
}

// Finalize closes voting by confirming one time slot and one restaurant.
// The confirmed options are stored as copies.
func (e *Engine) Finalize(ctx context.Context, caller models.Identity, planID string, in FinalizeInput) (*models.Plan, error) {
	if err := e.check(in); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	plan, err := e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if err := requireCreator(p, caller, "finalize the plan"); err != nil {
			return err
		}
		if err := CanTransition(p.Status, models.StatusFinalized); err != nil {
			return err
		}

		ts, ok := p.TimeSlot(in.TimeSlotID)
		if !ok {
			return models.Errorf(models.ErrPreconditionFailed, "time slot %s is not part of plan %s", in.TimeSlotID, p.ID)
		}
		ro, ok := p.RestaurantOption(in.RestaurantID)
		if !ok {
			return models.Errorf(models.ErrPreconditionFailed, "restaurant %s is not part of plan %s", in.RestaurantID, p.ID)
		}

		p.Status = models.StatusFinalized
		p.ConfirmedTimeSlot = &ts
		p.ConfirmedRestaurant = &ro
		p.UpdatedAt = e.clock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Plan finalized",
		"plan_id", plan.ID,
		"time_slot_id", in.TimeSlotID,
		"restaurant_id", in.RestaurantID,
	)
	return plan, nil
}

// Cancel moves a planning or voting plan to the terminal cancelled state.
func (e *Engine) Cancel(ctx context.Context, caller models.Identity, planID string) (*models.Plan, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	plan, err := e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if err := requireCreator(p, caller, "cancel the plan"); err != nil {
			return err
		}
		if err := CanTransition(p.Status, models.StatusCancelled); err != nil {
			return err
		}
		p.Status = models.StatusCancelled
		p.UpdatedAt = e.clock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Plan cancelled", "plan_id", plan.ID)
	return plan, nil
}
