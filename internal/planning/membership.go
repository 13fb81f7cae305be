package planning

import (
	"context"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/storage"
)

// JoinPlan adds the caller to the roster of a planning plan.
// The roster freezes once voting starts. Joining twice is a no-op that returns
// the plan without writing it.
func (e *Engine) JoinPlan(ctx context.Context, caller models.Identity, planID string) (*models.Plan, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	name := caller.Name(caller.UserID)
	if err := e.check(profileInput{DisplayName: name}); err != nil {
		return nil, err
	}

	joined := false
	plan, err := e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		joined = false
		if err := requireStatus(p, "join", models.StatusPlanning); err != nil {
			return err
		}
		if p.IsParticipant(caller.UserID) {
			return storage.ErrUnchanged
		}

		now := e.clock()
		p.Participants = append(p.Participants, models.Participant{
			UserID:      caller.UserID,
			DisplayName: name,
			JoinedAt:    now,
		})
		p.UpdatedAt = now
		joined = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if joined {
		e.logger.Info("Participant joined", "plan_id", plan.ID, "user_id", caller.UserID)
	}
	return plan, nil
}
