package models

import "time"

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	StatusPlanning  PlanStatus = "planning"
	StatusVoting    PlanStatus = "voting"
	StatusFinalized PlanStatus = "finalized"
	StatusCancelled PlanStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s PlanStatus) IsTerminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// Plan is a single group dining coordination effort.
// It is the aggregate root: all nested collections are loaded and persisted with it.
type Plan struct {
	// ID is the unique identifier for the plan (UUID format).
	ID string

	// CreatedBy is the user ID of the creator. Never changes after creation.
	CreatedBy string

	// Title is the human-readable name of the plan (e.g., "Friday Dinner").
	Title string

	// Description is optional free text shown to participants.
	Description string

	Status PlanStatus

	// TimeSlots are the proposed times in insertion order.
	// Order matters: it is the display order and the tie-break order.
	TimeSlots []TimeSlot

	// RestaurantOptions are the proposed restaurants in insertion order.
	RestaurantOptions []RestaurantOption

	// Participants is the roster, unique by UserID. The creator is always first.
	Participants []Participant

	// Votes holds at most one ballot per participant.
	Votes []Vote

	// ConfirmedTimeSlot and ConfirmedRestaurant are value copies of the chosen
	// options. Both are set only when Status is StatusFinalized.
	ConfirmedTimeSlot   *TimeSlot
	ConfirmedRestaurant *RestaurantOption

	// VotingDeadline is advisory metadata for clients. Nothing closes voting automatically.
	VotingDeadline *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is managed by the store and bumped on every persisted mutation.
	Version int64
}

// TimeSlot is a proposed time window.
type TimeSlot struct {
	ID          string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// RestaurantOption is a proposed restaurant.
type RestaurantOption struct {
	ID          string
	Name        string
	Address     string
	Latitude    float64
	Longitude   float64
	CuisineType string
}

// Participant is a member of a plan's roster.
type Participant struct {
	UserID      string
	DisplayName string
	JoinedAt    time.Time
}

// IsCreator checks if the given user created the plan.
func (p *Plan) IsCreator(userID string) bool {
	return p.CreatedBy == userID
}

// IsParticipant checks if the given user is on the roster.
func (p *Plan) IsParticipant(userID string) bool {
	return p.participantIndex(userID) >= 0
}

func (p *Plan) participantIndex(userID string) int {
	for i := range p.Participants {
		if p.Participants[i].UserID == userID {
			return i
		}
	}
	return -1
}

// TimeSlot returns the time slot with the given ID.
func (p *Plan) TimeSlot(id string) (TimeSlot, bool) {
	for _, ts := range p.TimeSlots {
		if ts.ID == id {
			return ts, true
		}
	}
	return TimeSlot{}, false
}

// RestaurantOption returns the restaurant option with the given ID.
func (p *Plan) RestaurantOption(id string) (RestaurantOption, bool) {
	for _, ro := range p.RestaurantOptions {
		if ro.ID == id {
			return ro, true
		}
	}
	return RestaurantOption{}, false
}

// VoteBy returns the ballot cast by the given user, if any.
func (p *Plan) VoteBy(userID string) (*Vote, bool) {
	for i := range p.Votes {
		if p.Votes[i].UserID == userID {
			return &p.Votes[i], true
		}
	}
	return nil, false
}

// HasVoted reports whether the given user has a ballot on this plan.
func (p *Plan) HasVoted(userID string) bool {
	_, ok := p.VoteBy(userID)
	return ok
}

// Clone returns a deep copy so callers can mutate it without affecting the original.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.TimeSlots = append([]TimeSlot(nil), p.TimeSlots...)
	c.RestaurantOptions = append([]RestaurantOption(nil), p.RestaurantOptions...)
	c.Participants = append([]Participant(nil), p.Participants...)
	c.Votes = make([]Vote, len(p.Votes))
	for i, v := range p.Votes {
		v.Choices = append([]VoteChoice(nil), v.Choices...)
		c.Votes[i] = v
	}
	if p.ConfirmedTimeSlot != nil {
		ts := *p.ConfirmedTimeSlot
		c.ConfirmedTimeSlot = &ts
	}
	if p.ConfirmedRestaurant != nil {
		ro := *p.ConfirmedRestaurant
		c.ConfirmedRestaurant = &ro
	}
	if p.VotingDeadline != nil {
		d := *p.VotingDeadline
		c.VotingDeadline = &d
	}
	return &c
}

// CheckInvariants verifies the structural rules every persisted plan must satisfy.
// Stores call it before writing so a buggy mutation can never be persisted.
func (p *Plan) CheckInvariants() error {
	if !p.IsParticipant(p.CreatedBy) {
		return Errorf(ErrInvariant, "creator %s is not a participant", p.CreatedBy)
	}

	seen := make(map[string]bool, len(p.Participants))
	for _, part := range p.Participants {
		if seen[part.UserID] {
			return Errorf(ErrInvariant, "duplicate participant %s", part.UserID)
		}
		seen[part.UserID] = true
	}

	voters := make(map[string]bool, len(p.Votes))
	for _, v := range p.Votes {
		if voters[v.UserID] {
			return Errorf(ErrInvariant, "duplicate vote for user %s", v.UserID)
		}
		voters[v.UserID] = true
	}

	if p.Status == StatusFinalized {
		if p.ConfirmedTimeSlot == nil || p.ConfirmedRestaurant == nil {
			return Errorf(ErrInvariant, "finalized plan %s has no confirmed options", p.ID)
		}
		if _, ok := p.TimeSlot(p.ConfirmedTimeSlot.ID); !ok {
			return Errorf(ErrInvariant, "confirmed time slot %s is not part of plan", p.ConfirmedTimeSlot.ID)
		}
		if _, ok := p.RestaurantOption(p.ConfirmedRestaurant.ID); !ok {
			return Errorf(ErrInvariant, "confirmed restaurant %s is not part of plan", p.ConfirmedRestaurant.ID)
		}
	} else if p.ConfirmedTimeSlot != nil || p.ConfirmedRestaurant != nil {
		return Errorf(ErrInvariant, "plan %s has confirmed options while %s", p.ID, p.Status)
	}

	return nil
}
