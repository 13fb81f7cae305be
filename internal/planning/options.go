package planning

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/dinevote/internal/models"
)

// AddTimeSlot appends a proposed time window. Creator only, planning only.
func (e *Engine) AddTimeSlot(ctx context.Context, caller models.Identity, planID string, in TimeSlotInput) (*models.Plan, error) {
	if err := e.check(in); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	slot := models.TimeSlot{
		ID:          uuid.New().String(),
		Description: in.Description,
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
	}

	return e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if err := requireCreator(p, caller, "add time slots"); err != nil {
			return err
		}
		if err := requireStatus(p, "add time slots", models.StatusPlanning); err != nil {
			return err
		}
		p.TimeSlots = append(p.TimeSlots, slot)
		p.UpdatedAt = e.clock()
		return nil
	})
}

// AddRestaurantOption appends a proposed restaurant. Creator only, planning only.
func (e *Engine) AddRestaurantOption(ctx context.Context, caller models.Identity, planID string, in RestaurantInput) (*models.Plan, error) {
	if err := e.check(in); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	option := models.RestaurantOption{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		CuisineType: in.CuisineType,
	}

	return e.store.MutatePlan(ctx, planID, func(p *models.Plan) error {
		if err := requireCreator(p, caller, "add restaurant options"); err != nil {
			return err
		}
		if err := requireStatus(p, "add restaurant options", models.StatusPlanning); err != nil {
			return err
		}
		p.RestaurantOptions = append(p.RestaurantOptions, option)
		p.UpdatedAt = e.clock()
		return nil
	})
}
