// Package tally derives vote counts and participation from a plan's ballots.
// Nothing here touches storage; every value is recomputed from Plan.Votes.
package tally

import "github.com/mmynk/dinevote/internal/models"

// TimeSlotCount is a time slot with its derived vote count.
type TimeSlotCount struct {
	models.TimeSlot
	VoteCount int
}

// RestaurantCount is a restaurant option with its derived vote count.
type RestaurantCount struct {
	models.RestaurantOption
	VoteCount int
}

// ParticipantStatus is a roster entry with its derived voting flag.
type ParticipantStatus struct {
	models.Participant
	HasVoted bool
}

// Result is a point-in-time aggregation of one plan's ballots.
type Result struct {
	PlanID string
	Status models.PlanStatus

	// TimeSlots and Restaurants keep the plan's insertion order.
	TimeSlots   []TimeSlotCount
	Restaurants []RestaurantCount

	// Participants is the roster with each member's voting flag.
	Participants []ParticipantStatus

	TotalParticipants int
	VotedParticipants int

	// VotingProgress is VotedParticipants / TotalParticipants, in [0, 1].
	VotingProgress float64

	// LeadingTimeSlot and LeadingRestaurant index into TimeSlots and
	// Restaurants, or are -1 when the collection is empty.
	LeadingTimeSlot   int
	LeadingRestaurant int
}

// Compute aggregates the ballots of plan.
// Only ballots from current participants count; each endorsement adds exactly one
// to its option regardless of how many options the same ballot endorses.
func Compute(plan *models.Plan) *Result {
	tsIndex := make(map[string]int, len(plan.TimeSlots))
	timeSlots := make([]TimeSlotCount, len(plan.TimeSlots))
	for i, ts := range plan.TimeSlots {
		tsIndex[ts.ID] = i
		timeSlots[i] = TimeSlotCount{TimeSlot: ts}
	}

	roIndex := make(map[string]int, len(plan.RestaurantOptions))
	restaurants := make([]RestaurantCount, len(plan.RestaurantOptions))
	for i, ro := range plan.RestaurantOptions {
		roIndex[ro.ID] = i
		restaurants[i] = RestaurantCount{RestaurantOption: ro}
	}

	voted := 0
	for _, vote := range plan.Votes {
		if !plan.IsParticipant(vote.UserID) {
			continue
		}
		voted++

		// Choices are a set, but guard against duplicates from older data.
		seen := make(map[models.VoteChoice]bool, len(vote.Choices))
		for _, c := range vote.Choices {
			if seen[c] {
				continue
			}
			seen[c] = true

			switch c.Type {
			case models.ChoiceTimeSlot:
				if i, ok := tsIndex[c.OptionID]; ok {
					timeSlots[i].VoteCount++
				}
			case models.ChoiceRestaurant:
				if i, ok := roIndex[c.OptionID]; ok {
					restaurants[i].VoteCount++
				}
			}
		}
	}

	total := len(plan.Participants)
	progress := 0.0
	if total > 0 {
		progress = float64(voted) / float64(total)
	}

	tsCounts := make([]int, len(timeSlots))
	for i, ts := range timeSlots {
		tsCounts[i] = ts.VoteCount
	}
	roCounts := make([]int, len(restaurants))
	for i, ro := range restaurants {
		roCounts[i] = ro.VoteCount
	}

	return &Result{
		PlanID:            plan.ID,
		Status:            plan.Status,
		TimeSlots:         timeSlots,
		Restaurants:       restaurants,
		Participants:      Participants(plan),
		TotalParticipants: total,
		VotedParticipants: voted,
		VotingProgress:    progress,
		LeadingTimeSlot:   Leading(tsCounts),
		LeadingRestaurant: Leading(roCounts),
	}
}

// Leading returns the index of the highest count. Ties go to the lowest index,
// which is the earliest-inserted option. Returns -1 for an empty slice.
func Leading(counts []int) int {
	best := -1
	for i, c := range counts {
		if best == -1 || c > counts[best] {
			best = i
		}
	}
	return best
}

// Participants returns the roster with each member's voting flag.
func Participants(plan *models.Plan) []ParticipantStatus {
	out := make([]ParticipantStatus, len(plan.Participants))
	for i, p := range plan.Participants {
		out[i] = ParticipantStatus{
			Participant: p,
			HasVoted:    plan.HasVoted(p.UserID),
		}
	}
	return out
}

// TopTimeSlot returns the leading time slot, if any.
func (r *Result) TopTimeSlot() (TimeSlotCount, bool) {
	if r.LeadingTimeSlot < 0 {
		return TimeSlotCount{}, false
	}
	return r.TimeSlots[r.LeadingTimeSlot], true
}

// TopRestaurant returns the leading restaurant, if any.
func (r *Result) TopRestaurant() (RestaurantCount, bool) {
	if r.LeadingRestaurant < 0 {
		return RestaurantCount{}, false
	}
	return r.Restaurants[r.LeadingRestaurant], true
}
