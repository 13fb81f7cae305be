// Package models defines the core domain models for dinevote.
//
// # Aggregate
//
// A Plan is the unit of consistency. Everything that belongs to a group dining
// effort is nested inside it and persisted together:
//   - TimeSlot: a proposed time window for the meal
//   - RestaurantOption: a proposed place to eat
//   - Participant: a user who joined the plan
//   - Vote: one participant's ballot (a set of VoteChoice)
//
// # Derived values
//
// Vote counts and "has voted" flags are never stored. They are computed from
// the Votes collection by the tally package whenever a plan is read, so they
// can never drift from the ballots that produced them.
//
// # Design Principles
//
// 1. **Append-only options**: time slots and restaurants are never edited or removed
// 2. **One ballot per user**: resubmitting replaces the previous Vote in full
// 3. **Avoid circular references**: use ID strings instead of pointers for relationships
// 4. **Value snapshots**: a finalized plan keeps copies of the confirmed options
package models
