package policy

import "context"

type PolicyRepository interface {
	// GetSettings returns the stored row, or nil when the organization never configured one
	GetSettings(ctx context.Context, orgID string) (*PolicySettings, error)

	// ListProtectedWindows returns active windows scoped to the organization or to employeeID
	ListProtectedWindows(ctx context.Context, orgID, employeeID string) ([]ProtectedWindow, error)
}
