package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/organization"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
)

type organizationRepositoryImpl struct {
	db *database.DB
}

func NewOrganizationRepository(db *database.DB) organization.OrganizationRepository {
	return &organizationRepositoryImpl{db: db}
}

// ListActiveIDs implements organization.OrganizationRepository.
func (o *organizationRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT DISTINCT company_id
		FROM employees
		WHERE employment_status = $1 AND deleted_at IS NULL
		ORDER BY company_id
	`

	rows, err := q.Query(ctx, query, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}

	return ids, nil
}
