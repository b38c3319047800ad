package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/jackc/pgx/v5"
)

type scheduleProviderImpl struct {
	db       *database.DB
	calendar *localtime.Resolver
}

func NewScheduleProvider(db *database.DB, calendar *localtime.Resolver) schedule.Provider {
	return &scheduleProviderImpl{db: db, calendar: calendar}
}

// GetEffectiveSchedule implements schedule.Provider.
func (s *scheduleProviderImpl) GetEffectiveSchedule(ctx context.Context, employeeID string, dateAtNoon time.Time) (*schedule.EffectiveSchedule, error) {
	q := GetQuerier(ctx, s.db)

	var timezone *string
	err := q.QueryRow(ctx, `
		SELECT p.timezone
		FROM employees e
		LEFT JOIN attendance_policies p ON p.company_id = e.company_id
		WHERE e.id = $1
	`, employeeID).Scan(&timezone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee timezone: %w", err)
	}
	zone := ""
	if timezone != nil {
		zone = *timezone
	}
	local := s.calendar.Resolve(dateAtNoon, zone)

	query := `
		-- QUERY: GetEffectiveSchedule
		WITH target_schedule AS (
			SELECT COALESCE(
				-- Assignment overrides take priority
				(
					SELECT work_schedule_id
					FROM employee_schedule_assignments
					WHERE employee_id = $1
						AND $2::date BETWEEN start_date AND end_date
					ORDER BY start_date DESC
					LIMIT 1
				),
				-- Employee default
				(
					SELECT work_schedule_id
					FROM employees
					WHERE id = $1
				)
			) AS id
		)
		SELECT
			ws.id,
			wst.id,
			wst.day_of_week,
			-- TIME columns are lifted to timestamps so they scan into time.Time
			DATE '2000-01-01' + wst.clock_in_time,
			DATE '2000-01-01' + wst.break_start_time,
			DATE '2000-01-01' + wst.break_end_time,
			DATE '2000-01-01' + wst.clock_out_time,
			wst.is_next_day_checkout
		FROM target_schedule ts
		JOIN work_schedules ws ON ws.id = ts.id
		-- EXTRACT(ISODOW) yields 1 (Monday) to 7 (Sunday)
		JOIN work_schedule_times wst ON wst.work_schedule_id = ws.id
			AND wst.day_of_week = EXTRACT(ISODOW FROM $2::date)::int
		WHERE ws.deleted_at IS NULL
	`

	rows, err := q.Query(ctx, query, employeeID, local.DateKey())
	if err != nil {
		return nil, fmt.Errorf("failed to get effective schedule: %w", err)
	}
	defer rows.Close()

	var (
		scheduleID string
		slots      []schedule.TimeSlot
	)
	for rows.Next() {
		var t schedule.WorkScheduleTime
		err := rows.Scan(
			&scheduleID, &t.ID, &t.DayOfWeek, &t.ClockInTime, &t.BreakStartTime,
			&t.BreakEndTime, &t.ClockOutTime, &t.IsNextDayCheckout,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule time: %w", err)
		}
		t.WorkScheduleID = scheduleID
		slots = append(slots, t.Slots()...)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule times: %w", err)
	}

	if len(slots) == 0 {
		return nil, nil
	}

	return &schedule.EffectiveSchedule{
		EmployeeID: employeeID,
		Date:       local.Date,
		ScheduleID: scheduleID,
		TimeSlots:  slots,
	}, nil
}
