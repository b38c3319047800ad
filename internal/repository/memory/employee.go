package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/organization"
)

type employeeRepository struct {
	s *Store
}

func (s *Store) Employees() employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	emp, ok := r.s.employees[id]
	if !ok || emp.DeletedAt != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

type approverResolver struct {
	s *Store
}

func (s *Store) Approvers() employee.ApproverResolver {
	return &approverResolver{s: s}
}

// ResolveApproverUsers returns the configured approvers, or the manager's user when none are set.
func (r *approverResolver) ResolveApproverUsers(_ context.Context, employeeID, orgID string, _ employee.ContextTag) ([]employee.Approver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if approvers, ok := r.s.approvers[employeeID]; ok {
		return slices.Clone(approvers), nil
	}

	emp, ok := r.s.employees[employeeID]
	if !ok || emp.OrgID != orgID || emp.ManagerID == nil {
		return nil, nil
	}
	manager, ok := r.s.employees[*emp.ManagerID]
	if !ok || manager.UserID == nil {
		return nil, nil
	}
	return []employee.Approver{{UserID: *manager.UserID}}, nil
}

type organizationRepository struct {
	s *Store
}

func (s *Store) Organizations() organization.OrganizationRepository {
	return &organizationRepository{s: s}
}

func (r *organizationRepository) ListActiveIDs(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range r.s.employees {
		if e.EmploymentStatus == employee.EmploymentStatusActive && e.DeletedAt == nil {
			seen[e.OrgID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PutEmployee adds or replaces an employee.
func (s *Store) PutEmployee(emp employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.EmploymentStatus == "" {
		emp.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.employees[emp.ID] = emp
}

// SetApprovers overrides the approver list of an employee.
func (s *Store) SetApprovers(employeeID string, userIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approvers := make([]employee.Approver, 0, len(userIDs))
	for _, id := range userIDs {
		approvers = append(approvers, employee.Approver{UserID: id})
	}
	s.approvers[employeeID] = approvers
}
