package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/google/uuid"
)

type timeEntryRepository struct {
	s *Store
}

func (s *Store) TimeEntries() timeentry.TimeEntryRepository {
	return &timeEntryRepository{s: s}
}

// Create appends an entry, keeping the slice ordered by timestamp then insertion.
func (r *timeEntryRepository) Create(_ context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	if entry.EmployeeID == "" || entry.OrgID == "" {
		return timeentry.TimeEntry{}, errors.New("time entry requires org and employee")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}

	entries := r.s.entries
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Timestamp.After(entry.Timestamp)
	})
	entries = append(entries, timeentry.TimeEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = entry
	r.s.entries = entries

	return entry, nil
}

func (r *timeEntryRepository) GetLatestClockIn(_ context.Context, employeeID string) (*timeentry.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if e.EmployeeID == employeeID && e.EntryType == timeentry.EntryTypeClockIn && !e.IsCancelled {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *timeEntryRepository) HasClockOutAfter(_ context.Context, employeeID string, since time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hasClockOutAfterLocked(employeeID, since), nil
}

func (r *timeEntryRepository) GetLastEntryAfter(_ context.Context, employeeID string, since time.Time) (*timeentry.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if e.Timestamp.Before(since) {
			break
		}
		if e.EmployeeID == employeeID && !e.IsCancelled {
			return &e, nil
		}
	}
	return nil, nil
}

// LockForClose returns the clock-in. The store serializes transactions, so no row lock is needed.
func (r *timeEntryRepository) LockForClose(_ context.Context, clockInID string) (timeentry.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.entries {
		if e.ID == clockInID && e.EntryType == timeentry.EntryTypeClockIn {
			return e, nil
		}
	}
	return timeentry.TimeEntry{}, timeentry.ErrTimeEntryNotFound
}

func (r *timeEntryRepository) ListOpenClockIns(_ context.Context, orgID string, from, to time.Time) ([]timeentry.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var open []timeentry.TimeEntry
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if e.OrgID != orgID || e.EntryType != timeentry.EntryTypeClockIn || e.IsCancelled {
			continue
		}
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		if r.s.hasClockOutAfterLocked(e.EmployeeID, e.Timestamp) {
			continue
		}
		open = append(open, e)
	}
	return open, nil
}

func (s *Store) hasClockOutAfterLocked(employeeID string, since time.Time) bool {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !e.Timestamp.After(since) {
			return false
		}
		if e.EmployeeID == employeeID && e.EntryType == timeentry.EntryTypeClockOut && !e.IsCancelled {
			return true
		}
	}
	return false
}

// CancelEntry marks an entry cancelled, the only mutation time entries allow.
func (s *Store) CancelEntry(id, cancelledBy, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		now := s.now()
		s.entries[i].IsCancelled = true
		s.entries[i].CancelledAt = &now
		s.entries[i].CancelledBy = &cancelledBy
		s.entries[i].CancellationReason = &reason
		return nil
	}
	return timeentry.ErrTimeEntryNotFound
}

// EntriesFor returns the employee's entries in chronological order.
func (s *Store) EntriesFor(employeeID string) []timeentry.TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []timeentry.TimeEntry
	for _, e := range s.entries {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out
}
