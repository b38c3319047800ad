package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/google/uuid"
)

type alertRepositoryImpl struct {
	db *database.DB
}

func NewAlertRepository(db *database.DB) alert.AlertRepository {
	return &alertRepositoryImpl{db: db}
}

// Upsert implements alert.AlertRepository.
func (a *alertRepositoryImpl) Upsert(ctx context.Context, in alert.Alert) (alert.Alert, error) {
	q := GetQuerier(ctx, a.db)

	if in.ID == "" {
		in.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance_alerts (id, company_id, employee_id, alert_date, type, severity, title, description, status, workday_summary_id)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (employee_id, alert_date, type)
		DO UPDATE SET
			severity = EXCLUDED.severity,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			workday_summary_id = EXCLUDED.workday_summary_id,
			updated_at = NOW()
		RETURNING id, company_id, employee_id, alert_date, type, severity, title, description, status,
			workday_summary_id, created_at, updated_at
	`

	var out alert.Alert
	err := q.QueryRow(ctx, query,
		in.ID,
		in.OrgID,
		in.EmployeeID,
		in.Date.Format(localtime.DateLayout),
		string(in.Type),
		string(in.Severity),
		in.Title,
		in.Description,
		string(in.Status),
		in.WorkdaySummaryID,
	).Scan(
		&out.ID, &out.OrgID, &out.EmployeeID, &out.Date, &out.Type, &out.Severity, &out.Title, &out.Description,
		&out.Status, &out.WorkdaySummaryID, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("failed to upsert alert: %w", err)
	}

	return out, nil
}
