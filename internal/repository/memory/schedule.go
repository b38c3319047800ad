package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
)

type scheduleProvider struct {
	s *Store
}

func (s *Store) Schedules() schedule.Provider {
	return &scheduleProvider{s: s}
}

func (p *scheduleProvider) GetEffectiveSchedule(_ context.Context, employeeID string, dateAtNoon time.Time) (*schedule.EffectiveSchedule, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	byDay, ok := p.s.schedules[employeeID]
	if !ok {
		return nil, nil
	}

	zone := ""
	if emp, ok := p.s.employees[employeeID]; ok {
		zone = p.s.timezoneLocked(emp.OrgID)
	}
	local := p.s.calendar.Resolve(dateAtNoon, zone)

	slots, ok := byDay[local.Weekday]
	if !ok || len(slots) == 0 {
		return nil, nil
	}
	return &schedule.EffectiveSchedule{
		EmployeeID: employeeID,
		Date:       local.Date,
		TimeSlots:  slices.Clone(slots),
	}, nil
}

// SetSchedule sets the employee's slots for an ISO weekday (1=Monday, ..., 7=Sunday).
func (s *Store) SetSchedule(employeeID string, weekday int, slots ...schedule.TimeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedules[employeeID] == nil {
		s.schedules[employeeID] = make(map[int][]schedule.TimeSlot)
	}
	s.schedules[employeeID][weekday] = slots
}
