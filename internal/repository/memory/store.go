// Package memory keeps every repository in process memory. It backs local runs
// with STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	now      func() time.Time
	calendar *localtime.Resolver

	entries       []timeentry.TimeEntry
	summaries     map[string]workday.WorkdaySummary
	settings      map[string]policy.PolicySettings
	windows       map[string][]policy.ProtectedWindow
	schedules     map[string]map[int][]schedule.TimeSlot
	alerts        map[string]alert.Alert
	employees     map[string]employee.Employee
	approvers     map[string][]employee.Approver
	notifications []notification.Notification
	preferences   map[string]bool
	overtimeJobs  map[string]OvertimeJob
}

// OvertimeJob is a queued recomputation with the number of times it was requested.
type OvertimeJob struct {
	overtime.Job
	RequestedAt time.Time
	Requests    int
}

func NewStore(calendar *localtime.Resolver) *Store {
	if calendar == nil {
		calendar = localtime.NewResolver("UTC")
	}
	return &Store{
		now:          time.Now,
		calendar:     calendar,
		summaries:    make(map[string]workday.WorkdaySummary),
		settings:     make(map[string]policy.PolicySettings),
		windows:      make(map[string][]policy.ProtectedWindow),
		schedules:    make(map[string]map[int][]schedule.TimeSlot),
		alerts:       make(map[string]alert.Alert),
		employees:    make(map[string]employee.Employee),
		approvers:    make(map[string][]employee.Approver),
		preferences:  make(map[string]bool),
		overtimeJobs: make(map[string]OvertimeJob),
	}
}

// SetClock replaces the wall clock used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

type txMarker struct{}

// WithinTransaction implements database.TxManager. Transactions are serialized and
// time entries written inside fn are discarded when fn fails.
func (s *Store) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := slices.Clone(s.entries)
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		s.mu.Lock()
		s.entries = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func dateKey(t time.Time) string {
	return t.Format(localtime.DateLayout)
}

func summaryKey(orgID, employeeID string, date time.Time) string {
	return orgID + "|" + employeeID + "|" + dateKey(date)
}

func (s *Store) timezoneLocked(orgID string) string {
	if st, ok := s.settings[orgID]; ok && st.Timezone != nil {
		return *st.Timezone
	}
	return ""
}
