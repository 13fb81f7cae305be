package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/storage"
)

func newTestStore(t *testing.T, attempts int) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath, storage.RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func fullPlan() *models.Plan {
	start := time.Date(2026, 3, 6, 19, 0, 0, 0, time.UTC)
	return &models.Plan{
		CreatedBy:   "alice",
		Title:       "Friday Dinner",
		Description: "Team night out",
		TimeSlots: []models.TimeSlot{
			{ID: "ts-1", Description: "Early", StartTime: start, EndTime: start.Add(2 * time.Hour)},
			{ID: "ts-2", Description: "Late", StartTime: start.Add(time.Hour), EndTime: start.Add(3 * time.Hour)},
		},
		RestaurantOptions: []models.RestaurantOption{
			{ID: "ro-1", Name: "Sushi Place", Address: "1 Main St", Latitude: 37.77, Longitude: -122.41, CuisineType: "japanese"},
			{ID: "ro-2", Name: "Taqueria", CuisineType: "mexican"},
		},
		Participants: []models.Participant{
			{UserID: "alice", DisplayName: "Alice", JoinedAt: start.Add(-48 * time.Hour)},
			{UserID: "bob", DisplayName: "Bob", JoinedAt: start.Add(-24 * time.Hour)},
		},
		Votes: []models.Vote{
			{
				ID:     "vote-1",
				UserID: "bob",
				Choices: []models.VoteChoice{
					{Type: models.ChoiceTimeSlot, OptionID: "ts-2"},
					{Type: models.ChoiceRestaurant, OptionID: "ro-1"},
					{Type: models.ChoiceTimeSlot, OptionID: "ts-1"},
				},
				Comment: "either works",
				VotedAt: start.Add(-time.Hour),
			},
		},
	}
}

func TestStore(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	t.Run("CreatePlan and GetPlan round trip", func(t *testing.T) {
		original := fullPlan()
		if err := store.CreatePlan(ctx, original); err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		if original.ID == "" {
			t.Fatal("Expected plan ID to be generated")
		}

		got, err := store.GetPlan(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetPlan failed: %v", err)
		}

		if got.Title != original.Title || got.Description != original.Description {
			t.Errorf("Got title %q description %q", got.Title, got.Description)
		}
		if got.Status != models.StatusPlanning || got.Version != 1 {
			t.Errorf("Got status %s version %d", got.Status, got.Version)
		}
		if !got.CreatedAt.Equal(original.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, original.CreatedAt)
		}
		if len(got.TimeSlots) != 2 || got.TimeSlots[0].ID != "ts-1" || got.TimeSlots[1].ID != "ts-2" {
			t.Fatalf("Time slots not preserved in order: %+v", got.TimeSlots)
		}
		if !got.TimeSlots[0].StartTime.Equal(original.TimeSlots[0].StartTime) {
			t.Errorf("StartTime = %v, want %v", got.TimeSlots[0].StartTime, original.TimeSlots[0].StartTime)
		}
		if got.RestaurantOptions[0] != original.RestaurantOptions[0] {
			t.Errorf("Restaurant = %+v, want %+v", got.RestaurantOptions[0], original.RestaurantOptions[0])
		}
		if len(got.Participants) != 2 || got.Participants[0].UserID != "alice" {
			t.Errorf("Participants not preserved: %+v", got.Participants)
		}
		if len(got.Votes) != 1 {
			t.Fatalf("Expected 1 vote, got %d", len(got.Votes))
		}
		vote := got.Votes[0]
		if vote.ID != "vote-1" || vote.PlanID != original.ID || vote.Comment != "either works" {
			t.Errorf("Vote = %+v", vote)
		}
		if len(vote.Choices) != 3 || vote.Choices[0].OptionID != "ts-2" || vote.Choices[2].OptionID != "ts-1" {
			t.Errorf("Choices not preserved in order: %+v", vote.Choices)
		}
	})

	t.Run("GetPlan returns NotFound for nonexistent plan", func(t *testing.T) {
		_, err := store.GetPlan(ctx, "nonexistent-id")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("MutatePlan finalizes and persists confirmed options", func(t *testing.T) {
		plan := fullPlan()
		store.CreatePlan(ctx, plan)

		deadline := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
		_, err := store.MutatePlan(ctx, plan.ID, func(p *models.Plan) error {
			p.Status = models.StatusFinalized
			ts, _ := p.TimeSlot("ts-2")
			ro, _ := p.RestaurantOption("ro-2")
			p.ConfirmedTimeSlot = &ts
			p.ConfirmedRestaurant = &ro
			p.VotingDeadline = &deadline
			p.Votes = append(p.Votes, models.Vote{
				ID:      "vote-2",
				PlanID:  p.ID,
				UserID:  "alice",
				Choices: []models.VoteChoice{{Type: models.ChoiceRestaurant, OptionID: "ro-2"}},
			})
			return nil
		})
		if err != nil {
			t.Fatalf("MutatePlan failed: %v", err)
		}

		got, err := store.GetPlan(ctx, plan.ID)
		if err != nil {
			t.Fatalf("GetPlan failed: %v", err)
		}
		if got.Status != models.StatusFinalized || got.Version != 2 {
			t.Errorf("Got status %s version %d", got.Status, got.Version)
		}
		if got.ConfirmedTimeSlot == nil || got.ConfirmedTimeSlot.Description != "Late" {
			t.Errorf("ConfirmedTimeSlot = %+v", got.ConfirmedTimeSlot)
		}
		if got.ConfirmedRestaurant == nil || got.ConfirmedRestaurant.Name != "Taqueria" {
			t.Errorf("ConfirmedRestaurant = %+v", got.ConfirmedRestaurant)
		}
		if got.VotingDeadline == nil || !got.VotingDeadline.Equal(deadline) {
			t.Errorf("VotingDeadline = %v, want %v", got.VotingDeadline, deadline)
		}
		if len(got.Votes) != 2 || !got.HasVoted("alice") {
			t.Errorf("Expected alice's vote to be stored, got %+v", got.Votes)
		}
	})

	t.Run("MutatePlan replaces nested rows", func(t *testing.T) {
		plan := fullPlan()
		store.CreatePlan(ctx, plan)

		_, err := store.MutatePlan(ctx, plan.ID, func(p *models.Plan) error {
			p.Votes[0].Choices = []models.VoteChoice{{Type: models.ChoiceRestaurant, OptionID: "ro-2"}}
			p.Votes[0].Comment = ""
			return nil
		})
		if err != nil {
			t.Fatalf("MutatePlan failed: %v", err)
		}

		got, _ := store.GetPlan(ctx, plan.ID)
		if len(got.Votes) != 1 || got.Votes[0].ID != "vote-1" {
			t.Fatalf("Expected the same ballot to be kept, got %+v", got.Votes)
		}
		if len(got.Votes[0].Choices) != 1 || got.Votes[0].Choices[0].OptionID != "ro-2" {
			t.Errorf("Choices = %+v, want only ro-2", got.Votes[0].Choices)
		}
	})

	t.Run("MutatePlan on missing plan returns NotFound", func(t *testing.T) {
		_, err := store.MutatePlan(ctx, "nonexistent-id", func(p *models.Plan) error { return nil })
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_VersionConflict(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	plan := fullPlan()
	store.CreatePlan(ctx, plan)

	stale, _ := store.GetPlan(ctx, plan.ID)
	if _, err := store.MutatePlan(ctx, plan.ID, func(p *models.Plan) error {
		p.Title = "fresh"
		return nil
	}); err != nil {
		t.Fatalf("MutatePlan failed: %v", err)
	}

	stale.Title = "stale"
	stale.Version++
	ok, err := store.commit(ctx, stale, 1)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if ok {
		t.Fatal("Expected stale commit to lose the compare-and-swap")
	}

	got, _ := store.GetPlan(ctx, plan.ID)
	if got.Title != "fresh" {
		t.Errorf("Title = %q, stale write leaked", got.Title)
	}
}

func TestStore_ConcurrentJoins(t *testing.T) {
	store := newTestStore(t, 200)
	ctx := context.Background()

	plan := fullPlan()
	store.CreatePlan(ctx, plan)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			_, err := store.MutatePlan(ctx, plan.ID, func(p *models.Plan) error {
				p.Participants = append(p.Participants, models.Participant{
					UserID:      user,
					DisplayName: user,
					JoinedAt:    time.Now().UTC(),
				})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent MutatePlan failed: %v", err)
		}
	}

	got, err := store.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if len(got.Participants) != writers+2 {
		t.Errorf("Expected %d participants, got %d", writers+2, len(got.Participants))
	}
	if got.Version != writers+1 {
		t.Errorf("Expected version %d, got %d", writers+1, got.Version)
	}
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	older := fullPlan()
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.CreatePlan(ctx, older)

	newer := fullPlan()
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.CreatePlan(ctx, newer)

	other := fullPlan()
	other.CreatedBy = "carol"
	other.Participants = []models.Participant{{UserID: "carol", DisplayName: "Carol"}}
	other.Votes = nil
	store.CreatePlan(ctx, other)

	created, err := store.ListPlansByCreator(ctx, "alice")
	if err != nil {
		t.Fatalf("ListPlansByCreator failed: %v", err)
	}
	if len(created) != 2 || created[0].ID != newer.ID || created[1].ID != older.ID {
		t.Errorf("Expected alice's plans newest first, got %d plans", len(created))
	}

	joined, err := store.ListPlansByParticipant(ctx, "bob")
	if err != nil {
		t.Fatalf("ListPlansByParticipant failed: %v", err)
	}
	if len(joined) != 2 {
		t.Errorf("Expected bob in 2 plans, got %d", len(joined))
	}

	none, _ := store.ListPlansByParticipant(ctx, "nobody")
	if len(none) != 0 {
		t.Errorf("Expected no plans, got %d", len(none))
	}
}

func TestStore_TimeRange(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	t.Run("far-future slot round trips exactly", func(t *testing.T) {
		plan := fullPlan()
		start := time.Date(2300, 1, 1, 18, 0, 0, 123456789, time.UTC)
		plan.TimeSlots[0].StartTime = start
		plan.TimeSlots[0].EndTime = start.Add(2 * time.Hour)
		deadline := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
		plan.VotingDeadline = &deadline

		if err := store.CreatePlan(ctx, plan); err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		got, err := store.GetPlan(ctx, plan.ID)
		if err != nil {
			t.Fatalf("GetPlan failed: %v", err)
		}
		if !got.TimeSlots[0].StartTime.Equal(start) {
			t.Errorf("StartTime = %v, want %v", got.TimeSlots[0].StartTime, start)
		}
		if got.VotingDeadline == nil || !got.VotingDeadline.Equal(deadline) {
			t.Errorf("VotingDeadline = %v, want %v", got.VotingDeadline, deadline)
		}
	})

	t.Run("non-UTC times are normalized", func(t *testing.T) {
		plan := fullPlan()
		zone := time.FixedZone("UTC+9", 9*60*60)
		start := time.Date(2026, 3, 7, 4, 0, 0, 0, zone)
		plan.TimeSlots[0].StartTime = start

		if err := store.CreatePlan(ctx, plan); err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		got, _ := store.GetPlan(ctx, plan.ID)
		if !got.TimeSlots[0].StartTime.Equal(start) || got.TimeSlots[0].StartTime.Location() != time.UTC {
			t.Errorf("StartTime = %v, want %v in UTC", got.TimeSlots[0].StartTime, start)
		}
	})

	t.Run("unrepresentable year is rejected on create", func(t *testing.T) {
		plan := fullPlan()
		plan.TimeSlots[1].EndTime = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
		if err := store.CreatePlan(ctx, plan); err == nil {
			t.Fatal("Expected an error for year 10000")
		}
	})

	t.Run("unrepresentable year is rejected on mutate", func(t *testing.T) {
		plan := fullPlan()
		if err := store.CreatePlan(ctx, plan); err != nil {
			t.Fatalf("CreatePlan failed: %v", err)
		}
		_, err := store.MutatePlan(ctx, plan.ID, func(p *models.Plan) error {
			d := time.Date(-5, 1, 1, 0, 0, 0, 0, time.UTC)
			p.VotingDeadline = &d
			return nil
		})
		if err == nil {
			t.Fatal("Expected an error for a negative year")
		}

		got, _ := store.GetPlan(ctx, plan.ID)
		if got.VotingDeadline != nil || got.Version != 1 {
			t.Errorf("Rejected write leaked: deadline %v version %d", got.VotingDeadline, got.Version)
		}
	})
}

func TestFormatTime_SortsAsText(t *testing.T) {
	times := []time.Time{
		time.Date(999, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 6, 19, 0, 5, 0, time.UTC),
		time.Date(2026, 3, 6, 19, 0, 5, 100, time.UTC),
		time.Date(2026, 3, 6, 19, 0, 6, 0, time.UTC),
		time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		a, b := formatTime(times[i-1]), formatTime(times[i])
		if a >= b {
			t.Errorf("formatTime order broken: %q >= %q", a, b)
		}
	}

	got, err := parseTime([]byte(formatTime(times[2])))
	if err != nil || !got.Equal(times[2]) {
		t.Errorf("parseTime = %v, %v; want %v", got, err, times[2])
	}
	if _, err := parseTime(int64(5)); err == nil {
		t.Error("Expected an error for a non-text column")
	}
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect
		query   string
		want    string
	}{
		{
			name:    "sqlite keeps question marks",
			dialect: dialects[DriverSQLite],
			query:   "SELECT id FROM plans WHERE id = ? AND version = ?",
			want:    "SELECT id FROM plans WHERE id = ? AND version = ?",
		},
		{
			name:    "postgres numbers placeholders",
			dialect: dialects[DriverPostgres],
			query:   "UPDATE plans SET title = ?, version = ? WHERE id = ? AND version = ?",
			want:    "UPDATE plans SET title = $1, version = $2 WHERE id = $3 AND version = $4",
		},
		{
			name:    "postgres without placeholders",
			dialect: dialects[DriverPostgres],
			query:   "SELECT 1",
			want:    "SELECT 1",
		},
		{
			name:    "postgres past nine",
			dialect: dialects[DriverPostgres],
			query:   "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			want:    "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.rebind(tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialects(t *testing.T) {
	pg := dialects[DriverPostgres]
	if pg.readTx == nil || !pg.readTx.ReadOnly || pg.readTx.Isolation != sql.LevelRepeatableRead {
		t.Errorf("postgres reads must use a read-only repeatable-read snapshot, got %+v", pg.readTx)
	}
	if pg.goose != "postgres" || pg.driver != "postgres" {
		t.Errorf("postgres dialect = %+v", pg)
	}

	lite := dialects[DriverSQLite]
	if lite.positional || lite.goose != "sqlite3" {
		t.Errorf("sqlite dialect = %+v", lite)
	}

	if _, err := Open("mysql", "", storage.DefaultRetryPolicy()); err == nil {
		t.Error("Expected unsupported driver to be rejected")
	}
}
