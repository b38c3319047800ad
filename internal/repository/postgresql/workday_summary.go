package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workdaySummaryColumns = `id, company_id, employee_id, work_date, resolution_status, data_quality,
	resolution_flags, overtime_calc_status, overtime_calc_updated_at, version, created_at, updated_at`

type workdaySummaryRepositoryImpl struct {
	db       *database.DB
	calendar *localtime.Resolver
}

func NewWorkdaySummaryRepository(db *database.DB) workday.WorkdaySummaryRepository {
	return &workdaySummaryRepositoryImpl{db: db}
}

// NewWorkdaySummaryUpdater returns the hook that makes sure a summary row exists
// for the organization-local date of an instant.
func NewWorkdaySummaryUpdater(db *database.DB, calendar *localtime.Resolver) workday.SummaryUpdater {
	return &workdaySummaryRepositoryImpl{db: db, calendar: calendar}
}

func scanWorkdaySummary(row pgx.Row) (workday.WorkdaySummary, error) {
	var (
		s         workday.WorkdaySummary
		flagsJSON []byte
	)
	err := row.Scan(
		&s.ID, &s.OrgID, &s.EmployeeID, &s.Date, &s.ResolutionStatus, &s.DataQuality,
		&flagsJSON, &s.OvertimeCalcStatus, &s.OvertimeCalcUpdatedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return workday.WorkdaySummary{}, err
	}

	if len(flagsJSON) > 0 {
		if err := json.Unmarshal(flagsJSON, &s.ResolutionFlags); err != nil {
			return workday.WorkdaySummary{}, fmt.Errorf("failed to decode resolution flags: %w", err)
		}
	} else {
		s.ResolutionFlags.Version = workday.FlagsVersion
	}
	s.Date = time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
	return s, nil
}

// GetByEmployeeAndDate implements workday.WorkdaySummaryRepository.
func (w *workdaySummaryRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, orgID, employeeID string, date time.Time) (workday.WorkdaySummary, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT ` + workdaySummaryColumns + `
		FROM workday_summaries
		WHERE company_id = $1 AND employee_id = $2 AND work_date = $3::date
	`

	summary, err := scanWorkdaySummary(q.QueryRow(ctx, query, orgID, employeeID, date.Format(localtime.DateLayout)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workday.WorkdaySummary{}, workday.ErrSummaryNotFound
		}
		return workday.WorkdaySummary{}, fmt.Errorf("failed to get workday summary: %w", err)
	}

	return summary, nil
}

// UpdateResolution implements workday.WorkdaySummaryRepository.
func (w *workdaySummaryRepositoryImpl) UpdateResolution(ctx context.Context, summary workday.WorkdaySummary) (workday.WorkdaySummary, error) {
	q := GetQuerier(ctx, w.db)

	flagsJSON, err := json.Marshal(summary.ResolutionFlags)
	if err != nil {
		return workday.WorkdaySummary{}, fmt.Errorf("failed to encode resolution flags: %w", err)
	}

	query := `
		UPDATE workday_summaries
		SET resolution_status = $1,
			data_quality = $2,
			resolution_flags = $3,
			overtime_calc_status = $4,
			overtime_calc_updated_at = $5,
			version = version + 1,
			updated_at = NOW()
		WHERE company_id = $6 AND employee_id = $7 AND work_date = $8::date AND version = $9
		RETURNING ` + workdaySummaryColumns

	updated, err := scanWorkdaySummary(q.QueryRow(ctx, query,
		string(summary.ResolutionStatus),
		string(summary.DataQuality),
		flagsJSON,
		string(summary.OvertimeCalcStatus),
		summary.OvertimeCalcUpdatedAt,
		summary.OrgID,
		summary.EmployeeID,
		summary.Date.Format(localtime.DateLayout),
		summary.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workday.WorkdaySummary{}, workday.ErrVersionConflict
		}
		return workday.WorkdaySummary{}, fmt.Errorf("failed to update workday summary: %w", err)
	}

	return updated, nil
}

// ListPendingEscalations implements workday.WorkdaySummaryRepository.
func (w *workdaySummaryRepositoryImpl) ListPendingEscalations(ctx context.Context, orgID string, from, to time.Time) ([]workday.WorkdaySummary, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT ` + workdaySummaryColumns + `
		FROM workday_summaries
		WHERE company_id = $1
			AND resolution_status = $2
			AND work_date >= $3::date
			AND work_date <= $4::date
			AND COALESCE((resolution_flags -> 'autoClosedSafety' ->> 'escalationPending')::boolean, FALSE)
		ORDER BY work_date, employee_id
	`

	rows, err := q.Query(ctx, query,
		orgID,
		string(workday.ResolutionStatusAutoClosedSafety),
		from.Format(localtime.DateLayout),
		to.Format(localtime.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending escalations: %w", err)
	}
	defer rows.Close()

	var summaries []workday.WorkdaySummary
	for rows.Next() {
		summary, err := scanWorkdaySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workday summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workday summaries: %w", err)
	}

	return summaries, nil
}

// UpdateWorkdaySummary implements workday.SummaryUpdater.
func (w *workdaySummaryRepositoryImpl) UpdateWorkdaySummary(ctx context.Context, employeeID, orgID string, instant time.Time) (*workday.WorkdaySummary, error) {
	q := GetQuerier(ctx, w.db)

	var timezone *string
	err := q.QueryRow(ctx, `SELECT timezone FROM attendance_policies WHERE company_id = $1`, orgID).Scan(&timezone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get organization timezone: %w", err)
	}
	zone := ""
	if timezone != nil {
		zone = *timezone
	}
	date := w.calendar.Resolve(instant, zone).DateKey()

	flagsJSON, err := json.Marshal(workday.ResolutionFlags{Version: workday.FlagsVersion})
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolution flags: %w", err)
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO workday_summaries (id, company_id, employee_id, work_date, resolution_status, data_quality,
			resolution_flags, overtime_calc_status, version)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, 1)
		ON CONFLICT (company_id, employee_id, work_date)
		DO UPDATE SET employee_id = EXCLUDED.employee_id
		RETURNING ` + workdaySummaryColumns

	summary, err := scanWorkdaySummary(q.QueryRow(ctx, query,
		uuid.New().String(),
		orgID,
		employeeID,
		date,
		string(workday.ResolutionStatusOK),
		string(workday.DataQualityHigh),
		flagsJSON,
		string(workday.OvertimeCalcStatusClean),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert workday summary: %w", err)
	}

	return &summary, nil
}
