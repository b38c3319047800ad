package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

// GetSettings implements policy.PolicyRepository.
func (p *policyRepositoryImpl) GetSettings(ctx context.Context, orgID string) (*policy.PolicySettings, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT company_id, timezone, missing_clock_out_mode, notify_employee, notify_approvers,
			require_approval_on_overtime, auto_close_enabled, auto_close_strategy, tolerance_minutes,
			trigger_extra_minutes, max_open_hours, fixed_hour, fixed_minute, auto_closed_requires_review
		FROM attendance_policies
		WHERE company_id = $1
	`

	var s policy.PolicySettings
	err := q.QueryRow(ctx, query, orgID).Scan(
		&s.OrgID, &s.Timezone, &s.Mode, &s.NotifyEmployee, &s.NotifyApprovers,
		&s.RequireApprovalOnOvertime, &s.AutoCloseEnabled, &s.Strategy, &s.ToleranceMinutes,
		&s.TriggerExtraMinutes, &s.MaxOpenHours, &s.FixedHour, &s.FixedMinute, &s.AutoClosedRequiresReview,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance policy: %w", err)
	}

	return &s, nil
}

// ListProtectedWindows implements policy.PolicyRepository.
func (p *policyRepositoryImpl) ListProtectedWindows(ctx context.Context, orgID, employeeID string) ([]policy.ProtectedWindow, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, company_id, name, scope, employee_id, is_active, weekdays, start_minute, end_minute,
			tolerance_minutes_override, max_open_hours_override, created_at, updated_at
		FROM protected_windows
		WHERE company_id = $1
			AND deleted_at IS NULL
			AND (scope = $2 OR (scope = $3 AND employee_id = $4))
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, orgID, string(policy.WindowScopeOrganization), string(policy.WindowScopeEmployee), employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list protected windows: %w", err)
	}
	defer rows.Close()

	var windows []policy.ProtectedWindow
	for rows.Next() {
		var (
			w        policy.ProtectedWindow
			weekdays []int32
		)
		err := rows.Scan(
			&w.ID, &w.OrgID, &w.Name, &w.Scope, &w.EmployeeID, &w.Active, &weekdays, &w.StartMinute, &w.EndMinute,
			&w.ToleranceMinutesOverride, &w.MaxOpenHoursOverride, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan protected window: %w", err)
		}
		for _, d := range weekdays {
			w.Weekdays = append(w.Weekdays, int(d))
		}
		windows = append(windows, w)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protected windows: %w", err)
	}

	return windows, nil
}
