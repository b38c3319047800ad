package organization

import "context"

type OrganizationRepository interface {
	// ListActiveIDs returns organizations that have at least one active employee
	ListActiveIDs(ctx context.Context) ([]string, error)
}
