package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/google/uuid"
)

type alertRepository struct {
	s *Store
}

func (s *Store) Alerts() alert.AlertRepository {
	return &alertRepository{s: s}
}

func (r *alertRepository) Upsert(_ context.Context, a alert.Alert) (alert.Alert, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := a.EmployeeID + "|" + dateKey(a.Date) + "|" + string(a.Type)
	now := r.s.now()
	if existing, ok := r.s.alerts[key]; ok {
		existing.Severity = a.Severity
		existing.Title = a.Title
		existing.Description = a.Description
		existing.Status = a.Status
		existing.WorkdaySummaryID = a.WorkdaySummaryID
		existing.UpdatedAt = now
		r.s.alerts[key] = existing
		return existing, nil
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.alerts[key] = a
	return a, nil
}

// AlertList returns every alert ordered by employee, date and type.
func (s *Store) AlertList() []alert.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]alert.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Type < out[j].Type
	})
	return out
}
