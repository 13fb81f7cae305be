package models

import "time"

// ChoiceType tags which option collection a VoteChoice points into.
type ChoiceType string

const (
	ChoiceTimeSlot   ChoiceType = "time_slot"
	ChoiceRestaurant ChoiceType = "restaurant"
)

// VoteChoice is one endorsement inside a ballot.
type VoteChoice struct {
	Type     ChoiceType
	OptionID string
}

// Vote is one participant's ballot for a plan.
// A participant may endorse several time slots and several restaurants;
// each endorsement counts once toward that option.
type Vote struct {
	// ID is the unique identifier for the vote (UUID format).
	// It stays the same when the ballot is replaced.
	ID string

	PlanID string
	UserID string

	// Choices is a set: no (Type, OptionID) pair appears twice.
	Choices []VoteChoice

	// Comment is an optional note from the voter.
	Comment string

	// VotedAt is when the current version of the ballot was submitted.
	VotedAt time.Time
}

// Includes reports whether the ballot endorses the given option.
func (v *Vote) Includes(t ChoiceType, optionID string) bool {
	for _, c := range v.Choices {
		if c.Type == t && c.OptionID == optionID {
			return true
		}
	}
	return false
}

// OptionIDs returns the endorsed option IDs of one type, in ballot order.
func (v *Vote) OptionIDs(t ChoiceType) []string {
	var ids []string
	for _, c := range v.Choices {
		if c.Type == t {
			ids = append(ids, c.OptionID)
		}
	}
	return ids
}
