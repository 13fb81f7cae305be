package planning

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/mmynk/dinevote/internal/models"
)

// CreatePlanInput is the payload of CreatePlan.
type CreatePlanInput struct {
	Title       string `json:"title" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// TimeSlotInput is the payload of AddTimeSlot.
type TimeSlotInput struct {
	Description string    `json:"description" validate:"max=100"`
	StartTime   time.Time `json:"start_time" validate:"required,calendar"`
	EndTime     time.Time `json:"end_time" validate:"required,calendar,gtfield=StartTime"`
}

// RestaurantInput is the payload of AddRestaurantOption.
type RestaurantInput struct {
	Name        string  `json:"name" validate:"notblank,max=100"`
	Address     string  `json:"address" validate:"max=200"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	CuisineType string  `json:"cuisine_type" validate:"max=50"`
}

// VoteInput is the payload of SubmitVote. Both lists must name at least one option.
type VoteInput struct {
	TimeSlotIDs   []string `json:"time_slot_ids" validate:"required,min=1,dive,required"`
	RestaurantIDs []string `json:"restaurant_ids" validate:"required,min=1,dive,required"`
	Comment       string   `json:"comment" validate:"max=200"`
}

// FinalizeInput is the payload of Finalize.
type FinalizeInput struct {
	TimeSlotID   string `json:"time_slot_id" validate:"required"`
	RestaurantID string `json:"restaurant_id" validate:"required"`
}

// profileInput bounds what the caller's token contributes to the roster.
type profileInput struct {
	DisplayName string `json:"display_name" validate:"max=50"`
}

// deadlineInput is checked by StartVoting.
type deadlineInput struct {
	VotingDeadline time.Time `json:"voting_deadline" validate:"calendar"`
}

// Times must fall in years 1 through 9999.
const (
	minYear = 1
	maxYear = 9999
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("calendar", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		y := t.UTC().Year()
		return y >= minYear && y <= maxYear
	})

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// check validates in and converts failures into a single ErrValidation.
func (e *Engine) check(in any) error {
	err := e.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.Errorf(models.ErrValidation, "%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return models.Errorf(models.ErrValidation, "%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "calendar":
		return fmt.Sprintf("%s must be between years %d and %d", field, minYear, maxYear)
	case "gtfield":
		return field + " must be after the start time"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// dedupe returns ids without repeats, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
