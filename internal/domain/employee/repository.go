package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
}

// ApproverResolver lists the users who approve an employee's records for a workflow.
type ApproverResolver interface {
	ResolveApproverUsers(ctx context.Context, employeeID, orgID string, contextTag ContextTag) ([]Approver, error)
}
