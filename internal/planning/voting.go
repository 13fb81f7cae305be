package planning

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/tally"
)

// StartVoting opens voting on a plan that has at least one time slot and one
// restaurant. The optional deadline is advisory and must lie in the future.
func (e *Engine) StartVoting(ctx context.Context, caller models.Identity, planID string, deadline *time.Time) (*models.Plan, error) {
	if deadline != nil {
		if err := e.check(deadlineInput{VotingDeadline: *deadline}); err != nil {
			return nil, err
		}
		if !deadline.After(e.clock()) {
			return nil, models.Errorf(models.ErrValidation, "voting_deadline must be in the future")
		}
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	plan, err := e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if err := requireCreator(p, caller, "start voting"); err != nil {
			return err
		}
		if err := CanTransition(p.Status, models.StatusVoting); err != nil {
			return err
		}
		if len(p.TimeSlots) == 0 {
			return models.Errorf(models.ErrPreconditionFailed, "plan %s has no time slots", p.ID)
		}
		if len(p.RestaurantOptions) == 0 {
			return models.Errorf(models.ErrPreconditionFailed, "plan %s has no restaurant options", p.ID)
		}

		p.Status = models.StatusVoting
		if deadline != nil {
			d := deadline.UTC()
			p.VotingDeadline = &d
		}
		p.UpdatedAt = e.clock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Voting started",
		"plan_id", plan.ID,
		"time_slots", len(plan.TimeSlots),
		"restaurants", len(plan.RestaurantOptions),
	)
	return plan, nil
}

// SubmitVote records the caller's ballot. A second submission replaces the
// first in full and keeps its ID.
func (e *Engine) SubmitVote(ctx context.Context, caller models.Identity, planID string, in VoteInput) (*models.Vote, error) {
	if err := e.check(in); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	timeSlotIDs := dedupe(in.TimeSlotIDs)
	restaurantIDs := dedupe(in.RestaurantIDs)

	choices := make([]models.VoteChoice, 0, len(timeSlotIDs)+len(restaurantIDs))
	for _, id := range timeSlotIDs {
		choices = append(choices, models.VoteChoice{Type: models.ChoiceTimeSlot, OptionID: id})
	}
	for _, id := range restaurantIDs {
		choices = append(choices, models.VoteChoice{Type: models.ChoiceRestaurant, OptionID: id})
	}

	// Generated once so a retried mutation does not hand out a different ID.
	newID := uuid.New().String()

	var vote models.Vote
	replaced := false
	_, err := e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if !p.IsParticipant(caller.UserID) {
			return models.Errorf(models.ErrForbidden, "user %s is not a participant of plan %s", caller.UserID, p.ID)
		}
		if err := requireStatus(p, "vote", models.StatusVoting); err != nil {
			return err
		}
		for _, id := range timeSlotIDs {
			if _, ok := p.TimeSlot(id); !ok {
				return models.Errorf(models.ErrNotFound, "time slot %s in plan %s", id, p.ID)
			}
		}
		for _, id := range restaurantIDs {
			if _, ok := p.RestaurantOption(id); !ok {
				return models.Errorf(models.ErrNotFound, "restaurant %s in plan %s", id, p.ID)
			}
		}

		now := e.clock()
		vote = models.Vote{
			ID:      newID,
			PlanID:  p.ID,
			UserID:  caller.UserID,
			Choices: append([]models.VoteChoice(nil), choices...),
			Comment: in.Comment,
			VotedAt: now,
		}

		if existing, ok := p.VoteBy(caller.UserID); ok {
			vote.ID = existing.ID
			*existing = vote
			replaced = true
		} else {
			p.Votes = append(p.Votes, vote)
			replaced = false
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Vote recorded",
		"plan_id", planID,
		"user_id", caller.UserID,
		"vote_id", vote.ID,
		"replaced", replaced,
	)
	return &vote, nil
}

// Tally aggregates the ballots of a plan in voting or finalized state.
func (e *Engine) Tally(ctx context.Context, caller models.Identity, planID string) (*tally.Result, error) {
	plan, err := e.GetPlan(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(plan, "view results", models.StatusVoting, models.StatusFinalized); err != nil {
		return nil, err
	}
	return tally.Compute(plan), nil
}
