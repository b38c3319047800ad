package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, user_id, company_id, manager_id, full_name, employment_status, created_at, updated_at, deleted_at
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`

	var found employee.Employee
	err := q.QueryRow(ctx, query, id).
		Scan(
			&found.ID, &found.UserID, &found.OrgID, &found.ManagerID, &found.FullName,
			&found.EmploymentStatus, &found.CreatedAt, &found.UpdatedAt, &found.DeletedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return found, nil
}

type approverResolverImpl struct {
	db *database.DB
}

func NewApproverResolver(db *database.DB) employee.ApproverResolver {
	return &approverResolverImpl{db: db}
}

// ResolveApproverUsers implements employee.ApproverResolver.
// The direct manager comes first, followed by the company's owners and managers.
func (a *approverResolverImpl) ResolveApproverUsers(ctx context.Context, employeeID, orgID string, contextTag employee.ContextTag) ([]employee.Approver, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		WITH approvers AS (
			SELECT m.user_id, 0 AS priority
			FROM employees e
			INNER JOIN employees m ON m.id = e.manager_id
			WHERE e.id = $1
				AND e.company_id = $2
				AND m.deleted_at IS NULL
				AND m.employment_status = $3
				AND m.user_id IS NOT NULL
			UNION ALL
			SELECT e.user_id, 1 AS priority
			FROM employees e
			INNER JOIN users u ON e.user_id = u.id
			WHERE e.company_id = $2
				AND e.employment_status = $3
				AND e.deleted_at IS NULL
				AND e.user_id IS NOT NULL
				AND u.role IN ('owner', 'manager')
		)
		SELECT user_id
		FROM approvers
		GROUP BY user_id
		ORDER BY MIN(priority), user_id
	`

	rows, err := q.Query(ctx, query, employeeID, orgID, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s approvers: %w", contextTag, err)
	}
	defer rows.Close()

	var approvers []employee.Approver
	for rows.Next() {
		var ap employee.Approver
		if err := rows.Scan(&ap.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan approver: %w", err)
		}
		approvers = append(approvers, ap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approvers: %w", err)
	}

	return approvers, nil
}
