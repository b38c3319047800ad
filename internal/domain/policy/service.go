package policy

import (
	"context"
	"time"
)

// Loader resolves the policy that governs an employee's punch at a given instant.
type Loader interface {
	// Organization returns the organization policy with defaults applied
	Organization(ctx context.Context, orgID string) (OrganizationPolicy, error)

	// Effective merges the organization policy with protected windows active at instant
	Effective(ctx context.Context, orgID, employeeID string, instant time.Time) (EffectivePolicy, error)
}
