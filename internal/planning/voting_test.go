package planning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/dinevote/internal/models"
)

func TestStartVoting(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	t.Run("opens voting with deadline", func(t *testing.T) {
		plan := planWithOptions(t, e, bob)
		deadline := testNow.Add(48 * time.Hour)

		got, err := e.StartVoting(ctx, alice, plan.ID, &deadline)
		if err != nil {
			t.Fatalf("StartVoting failed: %v", err)
		}
		if got.Status != models.StatusVoting {
			t.Errorf("Status = %s, want voting", got.Status)
		}
		if got.VotingDeadline == nil || !got.VotingDeadline.Equal(deadline) {
			t.Errorf("VotingDeadline = %v, want %v", got.VotingDeadline, deadline)
		}
	})

	t.Run("deadline past year 9999", func(t *testing.T) {
		plan := planWithOptions(t, e)
		far := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := e.StartVoting(ctx, alice, plan.ID, &far)
		assertKind(t, err, models.ErrValidation)
	})

	t.Run("past deadline", func(t *testing.T) {
		plan := planWithOptions(t, e)
		past := testNow.Add(-time.Minute)
		_, err := e.StartVoting(ctx, alice, plan.ID, &past)
		assertKind(t, err, models.ErrValidation)
	})

	t.Run("no time slots", func(t *testing.T) {
		plan, _ := e.CreatePlan(ctx, alice, CreatePlanInput{Title: "Friday Dinner"})
		e.AddRestaurantOption(ctx, alice, plan.ID, RestaurantInput{Name: "R1"})

		_, err := e.StartVoting(ctx, alice, plan.ID, nil)
		assertKind(t, err, models.ErrPreconditionFailed)
	})

	t.Run("no restaurants", func(t *testing.T) {
		plan, _ := e.CreatePlan(ctx, alice, CreatePlanInput{Title: "Friday Dinner"})
		e.AddTimeSlot(ctx, alice, plan.ID, TimeSlotInput{StartTime: friday(18), EndTime: friday(20)})

		_, err := e.StartVoting(ctx, alice, plan.ID, nil)
		assertKind(t, err, models.ErrPreconditionFailed)

		got, _ := e.GetPlan(ctx, alice, plan.ID)
		if got.Status != models.StatusPlanning {
			t.Errorf("Status = %s, want planning", got.Status)
		}
	})

	t.Run("creator only", func(t *testing.T) {
		plan := planWithOptions(t, e, bob)
		_, err := e.StartVoting(ctx, bob, plan.ID, nil)
		assertKind(t, err, models.ErrForbidden)
	})

	t.Run("already voting", func(t *testing.T) {
		plan := votingPlan(t, e)
		_, err := e.StartVoting(ctx, alice, plan.ID, nil)
		assertKind(t, err, models.ErrInvalidState)
	})

	t.Run("single participant may start", func(t *testing.T) {
		plan := planWithOptions(t, e)
		if _, err := e.StartVoting(ctx, alice, plan.ID, nil); err != nil {
			t.Errorf("StartVoting with only the creator failed: %v", err)
		}
	})
}

func TestSubmitVote(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	t.Run("multi-select counts once per option", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		t1, t2 := plan.TimeSlots[0].ID, plan.TimeSlots[1].ID
		r1 := plan.RestaurantOptions[0].ID

		vote, err := e.SubmitVote(ctx, bob, plan.ID, VoteInput{
			TimeSlotIDs:   []string{t1, t2},
			RestaurantIDs: []string{r1},
		})
		if err != nil {
			t.Fatalf("SubmitVote failed: %v", err)
		}
		if vote.ID == "" || vote.UserID != "bob" || vote.PlanID != plan.ID {
			t.Errorf("Vote = %+v", vote)
		}

		result, err := e.Tally(ctx, alice, plan.ID)
		if err != nil {
			t.Fatalf("Tally failed: %v", err)
		}
		want := []int{1, 1}
		for i, ts := range result.TimeSlots {
			if ts.VoteCount != want[i] {
				t.Errorf("TimeSlots[%d].VoteCount = %d, want %d", i, ts.VoteCount, want[i])
			}
		}
		if result.Restaurants[0].VoteCount != 1 || result.Restaurants[1].VoteCount != 0 {
			t.Errorf("Restaurant counts = %d, %d; want 1, 0",
				result.Restaurants[0].VoteCount, result.Restaurants[1].VoteCount)
		}
		if result.TotalParticipants != 2 || result.VotedParticipants != 1 || result.VotingProgress != 0.5 {
			t.Errorf("Progress = %d/%d (%v)", result.VotedParticipants, result.TotalParticipants, result.VotingProgress)
		}
	})

	t.Run("resubmission replaces the ballot", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		t1, t2 := plan.TimeSlots[0].ID, plan.TimeSlots[1].ID
		r1, r2 := plan.RestaurantOptions[0].ID, plan.RestaurantOptions[1].ID

		first, err := e.SubmitVote(ctx, bob, plan.ID, VoteInput{
			TimeSlotIDs:   []string{t1},
			RestaurantIDs: []string{r1},
			Comment:       "first",
		})
		if err != nil {
			t.Fatalf("SubmitVote failed: %v", err)
		}
		second, err := e.SubmitVote(ctx, bob, plan.ID, VoteInput{
			TimeSlotIDs:   []string{t2},
			RestaurantIDs: []string{r2},
		})
		if err != nil {
			t.Fatalf("second SubmitVote failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("Vote ID changed on resubmission: %s -> %s", first.ID, second.ID)
		}

		got, _ := e.GetPlan(ctx, alice, plan.ID)
		if len(got.Votes) != 1 {
			t.Fatalf("Expected exactly 1 vote, got %d", len(got.Votes))
		}
		v := got.Votes[0]
		if v.Includes(models.ChoiceTimeSlot, t1) || !v.Includes(models.ChoiceTimeSlot, t2) {
			t.Errorf("Stored choices = %+v, want only the second ballot", v.Choices)
		}
		if v.Comment != "" {
			t.Errorf("Comment = %q, want it cleared by the replacement", v.Comment)
		}

		result, _ := e.Tally(ctx, bob, plan.ID)
		if result.TimeSlots[0].VoteCount != 0 || result.TimeSlots[1].VoteCount != 1 {
			t.Errorf("Tally still reflects the first ballot: %+v", result.TimeSlots)
		}
		if result.Restaurants[0].VoteCount != 0 || result.Restaurants[1].VoteCount != 1 {
			t.Errorf("Tally still reflects the first ballot: %+v", result.Restaurants)
		}
	})

	t.Run("duplicate ids collapse", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		t1, r1 := plan.TimeSlots[0].ID, plan.RestaurantOptions[0].ID

		vote, err := e.SubmitVote(ctx, bob, plan.ID, VoteInput{
			TimeSlotIDs:   []string{t1, t1, t1},
			RestaurantIDs: []string{r1, r1},
		})
		if err != nil {
			t.Fatalf("SubmitVote failed: %v", err)
		}
		if len(vote.Choices) != 2 {
			t.Errorf("Expected 2 choices, got %d", len(vote.Choices))
		}

		result, _ := e.Tally(ctx, bob, plan.ID)
		if result.TimeSlots[0].VoteCount != 1 {
			t.Errorf("VoteCount = %d, want 1", result.TimeSlots[0].VoteCount)
		}
	})

	t.Run("boundaries", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		other := votingPlan(t, e, bob)
		t1, r1 := plan.TimeSlots[0].ID, plan.RestaurantOptions[0].ID

		tests := []struct {
			name  string
			input VoteInput
			want  error
		}{
			{name: "no time slots", input: VoteInput{RestaurantIDs: []string{r1}}, want: models.ErrValidation},
			{name: "no restaurants", input: VoteInput{TimeSlotIDs: []string{t1}}, want: models.ErrValidation},
			{name: "empty lists", input: VoteInput{TimeSlotIDs: []string{}, RestaurantIDs: []string{}}, want: models.ErrValidation},
			{name: "blank id", input: VoteInput{TimeSlotIDs: []string{""}, RestaurantIDs: []string{r1}}, want: models.ErrValidation},
			{name: "long comment", input: VoteInput{TimeSlotIDs: []string{t1}, RestaurantIDs: []string{r1}, Comment: strings.Repeat("x", 201)}, want: models.ErrValidation},
			{name: "unknown time slot", input: VoteInput{TimeSlotIDs: []string{"nope"}, RestaurantIDs: []string{r1}}, want: models.ErrNotFound},
			{name: "time slot of another plan", input: VoteInput{TimeSlotIDs: []string{other.TimeSlots[0].ID}, RestaurantIDs: []string{r1}}, want: models.ErrNotFound},
			{name: "restaurant id used as time slot", input: VoteInput{TimeSlotIDs: []string{r1}, RestaurantIDs: []string{r1}}, want: models.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.SubmitVote(ctx, bob, plan.ID, tt.input)
				assertKind(t, err, tt.want)
			})
		}

		got, _ := e.GetPlan(ctx, alice, plan.ID)
		if len(got.Votes) != 0 {
			t.Errorf("Rejected ballots were stored: %+v", got.Votes)
		}
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		_, err := e.SubmitVote(ctx, carol, plan.ID, VoteInput{
			TimeSlotIDs:   []string{plan.TimeSlots[0].ID},
			RestaurantIDs: []string{plan.RestaurantOptions[0].ID},
		})
		assertKind(t, err, models.ErrForbidden)
	})

	t.Run("rejected while planning", func(t *testing.T) {
		plan := planWithOptions(t, e, bob)
		_, err := e.SubmitVote(ctx, bob, plan.ID, VoteInput{
			TimeSlotIDs:   []string{plan.TimeSlots[0].ID},
			RestaurantIDs: []string{plan.RestaurantOptions[0].ID},
		})
		assertKind(t, err, models.ErrInvalidState)
	})
}

func TestTally(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	t.Run("N votes then one retraction", func(t *testing.T) {
		voters := []models.Identity{bob, carol, {UserID: "dave"}, {UserID: "erin"}}
		plan := votingPlan(t, e, voters...)
		t1, t2 := plan.TimeSlots[0].ID, plan.TimeSlots[1].ID
		r1 := plan.RestaurantOptions[0].ID

		for _, v := range voters {
			if _, err := e.SubmitVote(ctx, v, plan.ID, VoteInput{TimeSlotIDs: []string{t1}, RestaurantIDs: []string{r1}}); err != nil {
				t.Fatalf("SubmitVote(%s) failed: %v", v.UserID, err)
			}
		}

		result, _ := e.Tally(ctx, alice, plan.ID)
		if result.TimeSlots[0].VoteCount != len(voters) {
			t.Errorf("VoteCount = %d, want %d", result.TimeSlots[0].VoteCount, len(voters))
		}

		e.SubmitVote(ctx, carol, plan.ID, VoteInput{TimeSlotIDs: []string{t2}, RestaurantIDs: []string{r1}})

		result, _ = e.Tally(ctx, alice, plan.ID)
		if result.TimeSlots[0].VoteCount != len(voters)-1 {
			t.Errorf("VoteCount = %d, want %d", result.TimeSlots[0].VoteCount, len(voters)-1)
		}
		if result.VotedParticipants != len(voters) {
			t.Errorf("VotedParticipants = %d, want %d", result.VotedParticipants, len(voters))
		}
	})

	t.Run("leader tie goes to earliest option", func(t *testing.T) {
		plan := votingPlan(t, e, bob, carol)
		t1, t2 := plan.TimeSlots[0].ID, plan.TimeSlots[1].ID
		r2 := plan.RestaurantOptions[1].ID

		e.SubmitVote(ctx, bob, plan.ID, VoteInput{TimeSlotIDs: []string{t2}, RestaurantIDs: []string{r2}})
		e.SubmitVote(ctx, carol, plan.ID, VoteInput{TimeSlotIDs: []string{t1}, RestaurantIDs: []string{r2}})

		for i := 0; i < 3; i++ {
			result, err := e.Tally(ctx, alice, plan.ID)
			if err != nil {
				t.Fatalf("Tally failed: %v", err)
			}
			if result.LeadingTimeSlot != 0 {
				t.Errorf("LeadingTimeSlot = %d, want 0 on a tie", result.LeadingTimeSlot)
			}
			top, _ := result.TopRestaurant()
			if top.ID != r2 {
				t.Errorf("TopRestaurant = %s, want %s", top.ID, r2)
			}
		}
	})

	t.Run("available after finalize", func(t *testing.T) {
		plan := votingPlan(t, e, bob)
		e.Finalize(ctx, alice, plan.ID, FinalizeInput{TimeSlotID: plan.TimeSlots[0].ID, RestaurantID: plan.RestaurantOptions[0].ID})

		result, err := e.Tally(ctx, bob, plan.ID)
		if err != nil {
			t.Fatalf("Tally failed: %v", err)
		}
		if result.Status != models.StatusFinalized {
			t.Errorf("Status = %s, want finalized", result.Status)
		}
	})

	t.Run("not available while planning", func(t *testing.T) {
		plan := planWithOptions(t, e)
		_, err := e.Tally(ctx, alice, plan.ID)
		assertKind(t, err, models.ErrInvalidState)
	})

	t.Run("outsiders are forbidden", func(t *testing.T) {
		plan := votingPlan(t, e)
		_, err := e.Tally(ctx, carol, plan.ID)
		assertKind(t, err, models.ErrForbidden)
	})
}

// Concurrent ballots all land, including one voter replacing their ballot.
func TestSubmitVote_Concurrent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const voters = 12
	members := make([]models.Identity, voters)
	for i := range members {
		members[i] = models.Identity{UserID: fmt.Sprintf("voter-%d", i)}
	}
	plan := votingPlan(t, e, members...)
	t1, t2 := plan.TimeSlots[0].ID, plan.TimeSlots[1].ID
	r1 := plan.RestaurantOptions[0].ID

	// voter-0 has an existing ballot it replaces while everyone else votes.
	if _, err := e.SubmitVote(ctx, members[0], plan.ID, VoteInput{TimeSlotIDs: []string{t2}, RestaurantIDs: []string{r1}}); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(m models.Identity) {
			defer wg.Done()
			_, err := e.SubmitVote(ctx, m, plan.ID, VoteInput{TimeSlotIDs: []string{t1}, RestaurantIDs: []string{r1}})
			if err != nil {
				t.Errorf("SubmitVote(%s) failed: %v", m.UserID, err)
			}
		}(m)
	}
	wg.Wait()

	result, err := e.Tally(ctx, alice, plan.ID)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	if result.TimeSlots[0].VoteCount != voters {
		t.Errorf("T1 VoteCount = %d, want %d", result.TimeSlots[0].VoteCount, voters)
	}
	if result.TimeSlots[1].VoteCount != 0 {
		t.Errorf("T2 VoteCount = %d, want 0 after replacement", result.TimeSlots[1].VoteCount)
	}
	if result.Restaurants[0].VoteCount != voters {
		t.Errorf("R1 VoteCount = %d, want %d", result.Restaurants[0].VoteCount, voters)
	}

	got, _ := e.GetPlan(ctx, alice, plan.ID)
	if len(got.Votes) != voters {
		t.Errorf("Expected %d votes, got %d", voters, len(got.Votes))
	}
}
