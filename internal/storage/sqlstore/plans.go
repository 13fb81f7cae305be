package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/internal/storage"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Stored years must have four digits for timeLayout to round-trip and sort.
const (
	minYear = 1
	maxYear = 9999
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v any) (time.Time, error) {
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return time.Time{}, fmt.Errorf("unexpected time column type %T", v)
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// timestamp scans a stored time into t.
type timestamp struct{ t *time.Time }

func (ts timestamp) Scan(src any) error {
	t, err := parseTime(src)
	if err != nil {
		return err
	}
	*ts.t = t
	return nil
}

// nullTimestamp scans a nullable stored time; NULL leaves *t nil.
type nullTimestamp struct{ t **time.Time }

func (ts nullTimestamp) Scan(src any) error {
	if src == nil {
		*ts.t = nil
		return nil
	}
	t, err := parseTime(src)
	if err != nil {
		return err
	}
	*ts.t = &t
	return nil
}

// checkTimes rejects plans holding times timeLayout cannot represent.
func checkTimes(plan *models.Plan) error {
	check := func(what string, t time.Time) error {
		if y := t.UTC().Year(); y < minYear || y > maxYear {
			return fmt.Errorf("%s %s is outside the storable range", what, t.UTC())
		}
		return nil
	}

	if err := check("created_at", plan.CreatedAt); err != nil {
		return err
	}
	if err := check("updated_at", plan.UpdatedAt); err != nil {
		return err
	}
	if plan.VotingDeadline != nil {
		if err := check("voting_deadline", *plan.VotingDeadline); err != nil {
			return err
		}
	}
	for _, ts := range plan.TimeSlots {
		if err := check("start_time", ts.StartTime); err != nil {
			return err
		}
		if err := check("end_time", ts.EndTime); err != nil {
			return err
		}
	}
	for _, p := range plan.Participants {
		if err := check("joined_at", p.JoinedAt); err != nil {
			return err
		}
	}
	for _, v := range plan.Votes {
		if err := check("voted_at", v.VotedAt); err != nil {
			return err
		}
	}
	return nil
}

// CreatePlan persists a new plan and all of its nested rows.
func (s *Store) CreatePlan(ctx context.Context, plan *models.Plan) error {
	// Generate IDs if not set
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = plan.CreatedAt
	}
	plan.Status = models.StatusPlanning
	plan.Version = 1

	if err := plan.CheckInvariants(); err != nil {
		return err
	}
	if err := checkTimes(plan); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO plans (id, created_by, title, description, status,
			confirmed_time_slot_id, confirmed_restaurant_id, voting_deadline,
			created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		plan.ID, plan.CreatedBy, plan.Title, plan.Description, string(plan.Status),
		confirmedTimeSlotID(plan), confirmedRestaurantID(plan), deadlineValue(plan),
		formatTime(plan.CreatedAt), formatTime(plan.UpdatedAt), plan.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	if err := s.insertChildren(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetPlan retrieves a plan with all nested collections from a single snapshot.
func (s *Store) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	tx, err := s.db.BeginTx(ctx, s.dialect.readTx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	return s.loadPlan(ctx, tx, planID)
}

// MutatePlan applies fn and writes the result guarded by the plan's version column.
func (s *Store) MutatePlan(ctx context.Context, planID string, fn storage.MutateFunc) (*models.Plan, error) {
	return s.policy.Mutate(ctx, planID, s.GetPlan, s.commit, fn)
}

func (s *Store) commit(ctx context.Context, next *models.Plan, expected int64) (bool, error) {
	if err := checkTimes(next); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The version predicate makes this a compare-and-swap; it must be the
	// first statement so the write lock is taken before anything is read.
	res, err := tx.ExecContext(ctx, s.dialect.rebind(`
		UPDATE plans
		SET title = ?, description = ?, status = ?,
			confirmed_time_slot_id = ?, confirmed_restaurant_id = ?,
			voting_deadline = ?, updated_at = ?, version = ?
		WHERE id = ? AND version = ?`),
		next.Title, next.Description, string(next.Status),
		confirmedTimeSlotID(next), confirmedRestaurantID(next),
		deadlineValue(next), formatTime(next.UpdatedAt), next.Version,
		next.ID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := s.deleteChildren(ctx, tx, next.ID); err != nil {
		return false, err
	}
	if err := s.insertChildren(ctx, tx, next); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ListPlansByCreator retrieves all plans created by userID, newest first.
func (s *Store) ListPlansByCreator(ctx context.Context, userID string) ([]*models.Plan, error) {
	return s.listPlans(ctx,
		"SELECT id FROM plans WHERE created_by = ? ORDER BY created_at DESC, id",
		userID,
	)
}

// ListPlansByParticipant retrieves all plans whose roster includes userID, newest first.
func (s *Store) ListPlansByParticipant(ctx context.Context, userID string) ([]*models.Plan, error) {
	return s.listPlans(ctx, `
		SELECT p.id FROM plans p
		JOIN participants pt ON pt.plan_id = p.id
		WHERE pt.user_id = ?
		ORDER BY p.created_at DESC, p.id`,
		userID,
	)
}

func (s *Store) listPlans(ctx context.Context, query, userID string) ([]*models.Plan, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	plans := make([]*models.Plan, 0, len(ids))
	for _, id := range ids {
		plan, err := s.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (s *Store) loadPlan(ctx context.Context, q queryer, planID string) (*models.Plan, error) {
	plan := &models.Plan{}
	var (
		status                 string
		confirmedTS, confirmed sql.NullString
	)
	err := q.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, created_by, title, description, status,
			confirmed_time_slot_id, confirmed_restaurant_id, voting_deadline,
			created_at, updated_at, version
		FROM plans WHERE id = ?`),
		planID,
	).Scan(&plan.ID, &plan.CreatedBy, &plan.Title, &plan.Description, &status,
		&confirmedTS, &confirmed, nullTimestamp{&plan.VotingDeadline},
		timestamp{&plan.CreatedAt}, timestamp{&plan.UpdatedAt}, &plan.Version)
	if err == sql.ErrNoRows {
		return nil, models.Errorf(models.ErrNotFound, "plan %s", planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	plan.Status = models.PlanStatus(status)

	if err := s.loadTimeSlots(ctx, q, plan); err != nil {
		return nil, err
	}
	if err := s.loadRestaurants(ctx, q, plan); err != nil {
		return nil, err
	}
	if err := s.loadParticipants(ctx, q, plan); err != nil {
		return nil, err
	}
	if err := s.loadVotes(ctx, q, plan); err != nil {
		return nil, err
	}

	// Options are immutable once added, so resolving the confirmed ids against
	// the plan's own rows yields the same values that were snapshotted.
	if confirmedTS.Valid {
		if ts, ok := plan.TimeSlot(confirmedTS.String); ok {
			plan.ConfirmedTimeSlot = &ts
		}
	}
	if confirmed.Valid {
		if ro, ok := plan.RestaurantOption(confirmed.String); ok {
			plan.ConfirmedRestaurant = &ro
		}
	}

	return plan, nil
}

func (s *Store) loadTimeSlots(ctx context.Context, q queryer, plan *models.Plan) error {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(
		"SELECT id, description, start_time, end_time FROM time_slots WHERE plan_id = ? ORDER BY position"),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get time slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts models.TimeSlot
		if err := rows.Scan(&ts.ID, &ts.Description, timestamp{&ts.StartTime}, timestamp{&ts.EndTime}); err != nil {
			return fmt.Errorf("failed to scan time slot: %w", err)
		}
		plan.TimeSlots = append(plan.TimeSlots, ts)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate time slots: %w", err)
	}
	return nil
}

func (s *Store) loadRestaurants(ctx context.Context, q queryer, plan *models.Plan) error {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, name, address, latitude, longitude, cuisine_type
		FROM restaurant_options WHERE plan_id = ? ORDER BY position`),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get restaurant options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ro models.RestaurantOption
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Address, &ro.Latitude, &ro.Longitude, &ro.CuisineType); err != nil {
			return fmt.Errorf("failed to scan restaurant option: %w", err)
		}
		plan.RestaurantOptions = append(plan.RestaurantOptions, ro)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate restaurant options: %w", err)
	}
	return nil
}

func (s *Store) loadParticipants(ctx context.Context, q queryer, plan *models.Plan) error {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(
		"SELECT user_id, display_name, joined_at FROM participants WHERE plan_id = ? ORDER BY position"),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.DisplayName, timestamp{&p.JoinedAt}); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		plan.Participants = append(plan.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

func (s *Store) loadVotes(ctx context.Context, q queryer, plan *models.Plan) error {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(
		"SELECT id, user_id, comment, voted_at FROM votes WHERE plan_id = ? ORDER BY position"),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get votes: %w", err)
	}

	index := make(map[string]int)
	for rows.Next() {
		v := models.Vote{PlanID: plan.ID}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Comment, timestamp{&v.VotedAt}); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan vote: %w", err)
		}
		index[v.ID] = len(plan.Votes)
		plan.Votes = append(plan.Votes, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate votes: %w", err)
	}
	if len(plan.Votes) == 0 {
		return nil
	}

	choiceRows, err := q.QueryContext(ctx, s.dialect.rebind(`
		SELECT vote_id, choice_type, option_id
		FROM vote_choices WHERE plan_id = ?
		ORDER BY vote_id, position`),
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get vote choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var voteID, choiceType, optionID string
		if err := choiceRows.Scan(&voteID, &choiceType, &optionID); err != nil {
			return fmt.Errorf("failed to scan vote choice: %w", err)
		}
		i, ok := index[voteID]
		if !ok {
			continue
		}
		plan.Votes[i].Choices = append(plan.Votes[i].Choices, models.VoteChoice{
			Type:     models.ChoiceType(choiceType),
			OptionID: optionID,
		})
	}
	if err := choiceRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate vote choices: %w", err)
	}
	return nil
}

func (s *Store) deleteChildren(ctx context.Context, tx *sql.Tx, planID string) error {
	statements := []string{
		"DELETE FROM vote_choices WHERE plan_id = ?",
		"DELETE FROM votes WHERE plan_id = ?",
		"DELETE FROM participants WHERE plan_id = ?",
		"DELETE FROM restaurant_options WHERE plan_id = ?",
		"DELETE FROM time_slots WHERE plan_id = ?",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(stmt), planID); err != nil {
			return fmt.Errorf("failed to clear plan rows: %w", err)
		}
	}
	return nil
}

func (s *Store) insertChildren(ctx context.Context, tx *sql.Tx, plan *models.Plan) error {
	for i, ts := range plan.TimeSlots {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(
			"INSERT INTO time_slots (id, plan_id, position, description, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)"),
			ts.ID, plan.ID, i, ts.Description, formatTime(ts.StartTime), formatTime(ts.EndTime),
		)
		if err != nil {
			return fmt.Errorf("failed to insert time slot: %w", err)
		}
	}

	for i, ro := range plan.RestaurantOptions {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(`
			INSERT INTO restaurant_options (id, plan_id, position, name, address, latitude, longitude, cuisine_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			ro.ID, plan.ID, i, ro.Name, ro.Address, ro.Latitude, ro.Longitude, ro.CuisineType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert restaurant option: %w", err)
		}
	}

	for i, p := range plan.Participants {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(
			"INSERT INTO participants (plan_id, user_id, position, display_name, joined_at) VALUES (?, ?, ?, ?, ?)"),
			plan.ID, p.UserID, i, p.DisplayName, formatTime(p.JoinedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i, v := range plan.Votes {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(
			"INSERT INTO votes (id, plan_id, user_id, position, comment, voted_at) VALUES (?, ?, ?, ?, ?, ?)"),
			v.ID, plan.ID, v.UserID, i, v.Comment, formatTime(v.VotedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		for j, c := range v.Choices {
			_, err := tx.ExecContext(ctx, s.dialect.rebind(
				"INSERT INTO vote_choices (plan_id, vote_id, position, choice_type, option_id) VALUES (?, ?, ?, ?, ?)"),
				plan.ID, v.ID, j, string(c.Type), c.OptionID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert vote choice: %w", err)
			}
		}
	}

	return nil
}

func confirmedTimeSlotID(plan *models.Plan) any {
	if plan.ConfirmedTimeSlot == nil {
		return nil
	}
	return plan.ConfirmedTimeSlot.ID
}

func confirmedRestaurantID(plan *models.Plan) any {
	if plan.ConfirmedRestaurant == nil {
		return nil
	}
	return plan.ConfirmedRestaurant.ID
}

func deadlineValue(plan *models.Plan) any {
	if plan.VotingDeadline == nil {
		return nil
	}
	return formatTime(*plan.VotingDeadline)
}
