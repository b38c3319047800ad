package memory

import (
	"context"
	"slices"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/google/uuid"
)

type policyRepository struct {
	s *Store
}

func (s *Store) Policies() policy.PolicyRepository {
	return &policyRepository{s: s}
}

func (r *policyRepository) GetSettings(_ context.Context, orgID string) (*policy.PolicySettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.settings[orgID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *policyRepository) ListProtectedWindows(_ context.Context, orgID, employeeID string) ([]policy.ProtectedWindow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []policy.ProtectedWindow
	for _, w := range r.s.windows[orgID] {
		if w.Scope == policy.WindowScopeEmployee && (w.EmployeeID == nil || *w.EmployeeID != employeeID) {
			continue
		}
		w.Weekdays = slices.Clone(w.Weekdays)
		out = append(out, w)
	}
	return out, nil
}

// SetPolicy stores the organization's policy row.
func (s *Store) SetPolicy(settings policy.PolicySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.OrgID] = settings
}

// AddProtectedWindow registers a window for its organization.
func (s *Store) AddProtectedWindow(w policy.ProtectedWindow) policy.ProtectedWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	s.windows[w.OrgID] = append(s.windows[w.OrgID], w)
	return w
}
