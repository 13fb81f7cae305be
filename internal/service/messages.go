package service

import "time"

// Wire messages of dinevote.v1.PlanService. Field names are snake_case JSON.

// TimeSlot is a proposed time window with its derived vote count.
type TimeSlot struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	VoteCount   int       `json:"vote_count"`
}

// RestaurantOption is a proposed restaurant with its derived vote count.
type RestaurantOption struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CuisineType string  `json:"cuisine_type"`
	VoteCount   int     `json:"vote_count"`
}

// Participant is a roster entry.
type Participant struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	HasVoted    bool      `json:"has_voted"`
}

// VoteChoice is one endorsed option.
type VoteChoice struct {
	Type     string `json:"type"`
	OptionID string `json:"option_id"`
}

// Vote is a participant's ballot.
type Vote struct {
	ID      string       `json:"id"`
	PlanID  string       `json:"plan_id"`
	UserID  string       `json:"user_id"`
	Choices []VoteChoice `json:"choices"`
	Comment string       `json:"comment,omitempty"`
	VotedAt time.Time    `json:"voted_at"`
}

// Plan is the full view of a plan as seen by one caller.
type Plan struct {
	ID                  string             `json:"id"`
	CreatedBy           string             `json:"created_by"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Status              string             `json:"status"`
	TimeSlots           []TimeSlot         `json:"time_slots"`
	RestaurantOptions   []RestaurantOption `json:"restaurant_options"`
	Participants        []Participant      `json:"participants"`
	ConfirmedTimeSlot   *TimeSlot          `json:"confirmed_time_slot,omitempty"`
	ConfirmedRestaurant *RestaurantOption  `json:"confirmed_restaurant,omitempty"`
	VotingDeadline      *time.Time         `json:"voting_deadline,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	Version             int64              `json:"version"`

	// MyVote is the caller's own ballot, if any.
	MyVote *Vote `json:"my_vote,omitempty"`
}

// VotingResults is the tally of a plan.
type VotingResults struct {
	PlanID              string             `json:"plan_id"`
	Status              string             `json:"status"`
	TimeSlots           []TimeSlot         `json:"time_slots"`
	Restaurants         []RestaurantOption `json:"restaurants"`
	Participants        []Participant      `json:"participants"`
	TotalParticipants   int                `json:"total_participants"`
	VotedParticipants   int                `json:"voted_participants"`
	VotingProgress      float64            `json:"voting_progress"`
	LeadingTimeSlotID   string             `json:"leading_time_slot_id,omitempty"`
	LeadingRestaurantID string             `json:"leading_restaurant_id,omitempty"`
}

type CreatePlanRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreatePlanResponse struct {
	Plan *Plan `json:"plan"`
}

type ListPlansRequest struct {
	// Role is "created" or "participating" (default).
	Role string `json:"role"`
}

type ListPlansResponse struct {
	Plans []*Plan `json:"plans"`
}

type GetPlanRequest struct {
	PlanID string `json:"plan_id"`
}

type GetPlanResponse struct {
	Plan *Plan `json:"plan"`
}

type JoinPlanRequest struct {
	PlanID string `json:"plan_id"`
}

type JoinPlanResponse struct {
	Plan *Plan `json:"plan"`
}

type AddTimeSlotRequest struct {
	PlanID      string    `json:"plan_id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type AddTimeSlotResponse struct {
	Plan *Plan `json:"plan"`
}

type AddRestaurantOptionRequest struct {
	PlanID      string  `json:"plan_id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CuisineType string  `json:"cuisine_type"`
}

type AddRestaurantOptionResponse struct {
	Plan *Plan `json:"plan"`
}

type StartVotingRequest struct {
	PlanID         string     `json:"plan_id"`
	VotingDeadline *time.Time `json:"voting_deadline,omitempty"`
}

type StartVotingResponse struct {
	Plan *Plan `json:"plan"`
}

type SubmitVoteRequest struct {
	PlanID        string   `json:"plan_id"`
	TimeSlotIDs   []string `json:"time_slot_ids"`
	RestaurantIDs []string `json:"restaurant_ids"`
	Comment       string   `json:"comment,omitempty"`
}

type SubmitVoteResponse struct {
	Vote *Vote `json:"vote"`
}

type GetVotingResultsRequest struct {
	PlanID string `json:"plan_id"`
}

type GetVotingResultsResponse struct {
	Results *VotingResults `json:"results"`
}

type FinalizePlanRequest struct {
	PlanID       string `json:"plan_id"`
	TimeSlotID   string `json:"time_slot_id"`
	RestaurantID string `json:"restaurant_id"`
}

type FinalizePlanResponse struct {
	Plan *Plan `json:"plan"`
}

type CancelPlanRequest struct {
	PlanID string `json:"plan_id"`
}

type CancelPlanResponse struct {
	Plan *Plan `json:"plan"`
}
