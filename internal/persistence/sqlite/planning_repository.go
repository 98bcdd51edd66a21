package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/planning"
)

// PlanningRepository implements persistence.PlanningRepository using SQLite.
// A week definition is stored across three tables; saving one replaces the
// previous snapshot with the same (form, date of apply) key in a single
// transaction.
type PlanningRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPlanningRepository creates a new SQLite planning repository.
func NewPlanningRepository(pool *ConnectionPool) *PlanningRepository {
	return &PlanningRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetWeekDefinition retrieves a week definition with its working days and
// templates.
func (r *PlanningRepository) GetWeekDefinition(ctx context.Context, id string) (planning.WeekDefinition, error) {
	row := r.helper.QueryRow(ctx, `SELECT id, form_id, date_of_apply FROM week_definitions WHERE id = ?`, id)
	def, err := scanWeekDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return planning.WeekDefinition{}, persistence.ErrNotFound
		}
		return planning.WeekDefinition{}, r.mapper.MapError(err)
	}
	if err := r.loadWorkingDays(ctx, &def); err != nil {
		return planning.WeekDefinition{}, err
	}
	return def, nil
}

// ListWeekDefinitions returns every definition of a form with its full
// template tree.
func (r *PlanningRepository) ListWeekDefinitions(ctx context.Context, formID string) ([]planning.WeekDefinition, error) {
	rows, err := r.helper.Query(ctx, `SELECT id, form_id, date_of_apply FROM week_definitions WHERE form_id = ? ORDER BY date_of_apply`, formID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var definitions []planning.WeekDefinition
	for rows.Next() {
		def, err := scanWeekDefinition(rows)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range definitions {
		if err := r.loadWorkingDays(ctx, &definitions[i]); err != nil {
			return nil, err
		}
	}
	return definitions, nil
}

// SaveWeekDefinition stores a definition snapshot, replacing any previous one
// with the same (form, date of apply) key.
func (r *PlanningRepository) SaveWeekDefinition(ctx context.Context, def planning.WeekDefinition) error {
	if def.ID == "" || def.FormID == "" {
		return persistence.ErrConstraintViolation
	}
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM week_definitions WHERE form_id = ? AND date_of_apply = ?`,
			def.FormID, formatTime(def.DateOfApply)); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO week_definitions (id, form_id, date_of_apply) VALUES (?, ?, ?)`,
			def.ID, def.FormID, formatTime(def.DateOfApply)); err != nil {
			return err
		}
		for _, day := range def.WorkingDays {
			if _, err := tx.Exec(`INSERT INTO working_days (id, week_definition_id, day_of_week) VALUES (?, ?, ?)`,
				day.ID, def.ID, int(day.DayOfWeek)); err != nil {
				return err
			}
			for _, ts := range day.TimeSlots {
				if _, err := tx.Exec(
					`INSERT INTO time_slots (id, working_day_id, starting_time, ending_time, max_capacity, is_open) VALUES (?, ?, ?, ?, ?, ?)`,
					ts.ID, day.ID, int(ts.StartingTime), int(ts.EndingTime), ts.MaxCapacity, ts.IsOpen); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return r.mapper.MapError(err)
}

// DeleteWeekDefinition removes a definition; its days and templates cascade.
func (r *PlanningRepository) DeleteWeekDefinition(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM week_definitions WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetReservationRule retrieves the rule keyed by (form, date of apply).
func (r *PlanningRepository) GetReservationRule(ctx context.Context, formID string, dateOfApply time.Time) (planning.ReservationRule, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT id, form_id, date_of_apply, max_capacity_per_slot, duration_minutes FROM reservation_rules WHERE form_id = ? AND date_of_apply = ?`,
		formID, formatTime(dateOfApply))
	rule, err := scanReservationRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return planning.ReservationRule{}, persistence.ErrNotFound
		}
		return planning.ReservationRule{}, r.mapper.MapError(err)
	}
	return rule, nil
}

// ListReservationRules returns every rule of a form ordered by effective date.
func (r *PlanningRepository) ListReservationRules(ctx context.Context, formID string) ([]planning.ReservationRule, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, form_id, date_of_apply, max_capacity_per_slot, duration_minutes FROM reservation_rules WHERE form_id = ? ORDER BY date_of_apply`,
		formID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rules []planning.ReservationRule
	for rows.Next() {
		rule, err := scanReservationRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// SaveReservationRule stores a rule, replacing any previous one with the same
// (form, date of apply) key.
func (r *PlanningRepository) SaveReservationRule(ctx context.Context, rule planning.ReservationRule) error {
	if rule.ID == "" || rule.FormID == "" {
		return persistence.ErrConstraintViolation
	}
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM reservation_rules WHERE form_id = ? AND date_of_apply = ?`,
			rule.FormID, formatTime(rule.DateOfApply)); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO reservation_rules (id, form_id, date_of_apply, max_capacity_per_slot, duration_minutes) VALUES (?, ?, ?, ?, ?)`,
			rule.ID, rule.FormID, formatTime(rule.DateOfApply), rule.MaxCapacityPerSlot, rule.DurationMinutes)
		return err
	})
	return r.mapper.MapError(err)
}

// DeleteReservationRule removes a rule by id.
func (r *PlanningRepository) DeleteReservationRule(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM reservation_rules WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetClosingDay retrieves the closing day of a form on a civil date.
func (r *PlanningRepository) GetClosingDay(ctx context.Context, formID string, date time.Time) (planning.ClosingDay, error) {
	row := r.helper.QueryRow(ctx, `SELECT id, form_id, date FROM closing_days WHERE form_id = ? AND date = ?`,
		formID, formatTime(date))
	day, err := scanClosingDay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return planning.ClosingDay{}, persistence.ErrNotFound
		}
		return planning.ClosingDay{}, r.mapper.MapError(err)
	}
	return day, nil
}

// ListClosingDays returns the closing days of a form within [from, to].
func (r *PlanningRepository) ListClosingDays(ctx context.Context, formID string, from, to time.Time) ([]planning.ClosingDay, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, form_id, date FROM closing_days WHERE form_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		formID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var days []planning.ClosingDay
	for rows.Next() {
		day, err := scanClosingDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// SaveClosingDay stores a closing day.
func (r *PlanningRepository) SaveClosingDay(ctx context.Context, day planning.ClosingDay) error {
	if day.ID == "" || day.FormID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx,
		`INSERT INTO closing_days (id, form_id, date) VALUES (?, ?, ?)
		 ON CONFLICT (form_id, date) DO NOTHING`,
		day.ID, day.FormID, formatTime(day.Date))
	return r.mapper.MapError(err)
}

// DeleteClosingDay removes a closing day by id.
func (r *PlanningRepository) DeleteClosingDay(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM closing_days WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *PlanningRepository) loadWorkingDays(ctx context.Context, def *planning.WeekDefinition) error {
	dayRows, err := r.helper.Query(ctx,
		`SELECT id, day_of_week FROM working_days WHERE week_definition_id = ? ORDER BY day_of_week`, def.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var day planning.WorkingDay
		var weekday int
		if err := dayRows.Scan(&day.ID, &weekday); err != nil {
			return err
		}
		day.DayOfWeek = time.Weekday(weekday)
		def.WorkingDays = append(def.WorkingDays, day)
	}
	if err := dayRows.Err(); err != nil {
		return err
	}

	for i := range def.WorkingDays {
		day := &def.WorkingDays[i]
		slotRows, err := r.helper.Query(ctx,
			`SELECT id, starting_time, ending_time, max_capacity, is_open FROM time_slots WHERE working_day_id = ? ORDER BY starting_time`,
			day.ID)
		if err != nil {
			return r.mapper.MapError(err)
		}
		for slotRows.Next() {
			var ts planning.TimeSlot
			var start, end int
			if err := slotRows.Scan(&ts.ID, &start, &end, &ts.MaxCapacity, &ts.IsOpen); err != nil {
				slotRows.Close()
				return err
			}
			ts.StartingTime = planning.TimeOfDay(start)
			ts.EndingTime = planning.TimeOfDay(end)
			day.TimeSlots = append(day.TimeSlots, ts)
		}
		err = slotRows.Err()
		slotRows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func scanWeekDefinition(row rowScanner) (planning.WeekDefinition, error) {
	var def planning.WeekDefinition
	var dateOfApply string
	if err := row.Scan(&def.ID, &def.FormID, &dateOfApply); err != nil {
		return planning.WeekDefinition{}, err
	}
	var err error
	if def.DateOfApply, err = parseTime(dateOfApply); err != nil {
		return planning.WeekDefinition{}, err
	}
	return def, nil
}

func scanReservationRule(row rowScanner) (planning.ReservationRule, error) {
	var rule planning.ReservationRule
	var dateOfApply string
	if err := row.Scan(&rule.ID, &rule.FormID, &dateOfApply, &rule.MaxCapacityPerSlot, &rule.DurationMinutes); err != nil {
		return planning.ReservationRule{}, err
	}
	var err error
	if rule.DateOfApply, err = parseTime(dateOfApply); err != nil {
		return planning.ReservationRule{}, err
	}
	return rule, nil
}

func scanClosingDay(row rowScanner) (planning.ClosingDay, error) {
	var day planning.ClosingDay
	var date string
	if err := row.Scan(&day.ID, &day.FormID, &date); err != nil {
		return planning.ClosingDay{}, err
	}
	var err error
	if day.Date, err = parseTime(date); err != nil {
		return planning.ClosingDay{}, err
	}
	return day, nil
}
