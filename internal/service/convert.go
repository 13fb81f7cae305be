package service

import (
	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/tally"
)

// toPlan projects a plan for callerID, filling in the derived vote counts
// and voting flags.
func toPlan(p *models.Plan, callerID string) *Plan {
	result := tally.Compute(p)

	out := &Plan{
		ID:                p.ID,
		CreatedBy:         p.CreatedBy,
		Title:             p.Title,
		Description:       p.Description,
		Status:            string(p.Status),
		TimeSlots:         toTimeSlots(result.TimeSlots),
		RestaurantOptions: toRestaurants(result.Restaurants),
		Participants:      toParticipants(tally.Participants(p)),
		VotingDeadline:    p.VotingDeadline,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}

	if p.ConfirmedTimeSlot != nil {
		ts := toTimeSlot(*p.ConfirmedTimeSlot, countOf(result.TimeSlots, p.ConfirmedTimeSlot.ID))
		out.ConfirmedTimeSlot = &ts
	}
	if p.ConfirmedRestaurant != nil {
		ro := toRestaurant(*p.ConfirmedRestaurant, restaurantCountOf(result.Restaurants, p.ConfirmedRestaurant.ID))
		out.ConfirmedRestaurant = &ro
	}
	if v, ok := p.VoteBy(callerID); ok {
		out.MyVote = toVote(v)
	}
	return out
}

func toPlans(plans []*models.Plan, callerID string) []*Plan {
	out := make([]*Plan, len(plans))
	for i, p := range plans {
		out[i] = toPlan(p, callerID)
	}
	return out
}

func toTimeSlot(ts models.TimeSlot, votes int) TimeSlot {
	return TimeSlot{
		ID:          ts.ID,
		Description: ts.Description,
		StartTime:   ts.StartTime,
		EndTime:     ts.EndTime,
		VoteCount:   votes,
	}
}

func toRestaurant(ro models.RestaurantOption, votes int) RestaurantOption {
	return RestaurantOption{
		ID:          ro.ID,
		Name:        ro.Name,
		Address:     ro.Address,
		Latitude:    ro.Latitude,
		Longitude:   ro.Longitude,
		CuisineType: ro.CuisineType,
		VoteCount:   votes,
	}
}

func toTimeSlots(counts []tally.TimeSlotCount) []TimeSlot {
	out := make([]TimeSlot, len(counts))
	for i, c := range counts {
		out[i] = toTimeSlot(c.TimeSlot, c.VoteCount)
	}
	return out
}

func toRestaurants(counts []tally.RestaurantCount) []RestaurantOption {
	out := make([]RestaurantOption, len(counts))
	for i, c := range counts {
		out[i] = toRestaurant(c.RestaurantOption, c.VoteCount)
	}
	return out
}

func toParticipants(roster []tally.ParticipantStatus) []Participant {
	out := make([]Participant, len(roster))
	for i, p := range roster {
		out[i] = Participant{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			JoinedAt:    p.JoinedAt,
			HasVoted:    p.HasVoted,
		}
	}
	return out
}

func toVote(v *models.Vote) *Vote {
	choices := make([]VoteChoice, len(v.Choices))
	for i, c := range v.Choices {
		choices[i] = VoteChoice{Type: string(c.Type), OptionID: c.OptionID}
	}
	return &Vote{
		ID:      v.ID,
		PlanID:  v.PlanID,
		UserID:  v.UserID,
		Choices: choices,
		Comment: v.Comment,
		VotedAt: v.VotedAt,
	}
}

func toResults(r *tally.Result) *VotingResults {
	out := &VotingResults{
		PlanID:            r.PlanID,
		Status:            string(r.Status),
		TimeSlots:         toTimeSlots(r.TimeSlots),
		Restaurants:       toRestaurants(r.Restaurants),
		Participants:      toParticipants(r.Participants),
		TotalParticipants: r.TotalParticipants,
		VotedParticipants: r.VotedParticipants,
		VotingProgress:    r.VotingProgress,
	}
	if top, ok := r.TopTimeSlot(); ok {
		out.LeadingTimeSlotID = top.ID
	}
	if top, ok := r.TopRestaurant(); ok {
		out.LeadingRestaurantID = top.ID
	}
	return out
}

func countOf(counts []tally.TimeSlotCount, id string) int {
	for _, c := range counts {
		if c.ID == id {
			return c.VoteCount
		}
	}
	return 0
}

func restaurantCountOf(counts []tally.RestaurantCount, id string) int {
	for _, c := range counts {
		if c.ID == id {
			return c.VoteCount
		}
	}
	return 0
}
