package resolution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/repository/memory"
	policysvc "github.com/cmlabs-hris/hris-punch-resolution/internal/service/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOrgID         = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0001"
	testEmployeeID    = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0002"
	testUserID        = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0003"
	testManagerID     = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0004"
	testManagerUserID = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0005"
	testOtherEmpID    = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0006"
)

type recordingNotifier struct {
	mu   sync.Mutex
	reqs []notification.CreateNotificationRequest
}

func (n *recordingNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
	return nil
}

func (n *recordingNotifier) Stop() {}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.reqs))
	for _, r := range n.reqs {
		out = append(out, r.RecipientID)
	}
	return out
}

type harness struct {
	store    *memory.Store
	notifier *recordingNotifier
	svc      resolution.ResolutionService

	mu  sync.Mutex
	now time.Time
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) setNow(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = t
}

func newHarness(t *testing.T, settings policy.PolicySettings) *harness {
	t.Helper()

	calendar := localtime.NewResolver("UTC")
	store := memory.NewStore(calendar)
	h := &harness{store: store, notifier: &recordingNotifier{}}
	store.SetClock(h.clock)

	settings.OrgID = testOrgID
	store.SetPolicy(settings)

	userID, managerUserID, managerID := testUserID, testManagerUserID, testManagerID
	store.PutEmployee(employee.Employee{ID: testManagerID, OrgID: testOrgID, UserID: &managerUserID, FullName: "Maria Manager"})
	store.PutEmployee(employee.Employee{ID: testEmployeeID, OrgID: testOrgID, UserID: &userID, ManagerID: &managerID, FullName: "Eli Employee"})
	store.PutEmployee(employee.Employee{ID: testOtherEmpID, OrgID: testOrgID, FullName: "Olu Other"})

	summaries := store.WorkdaySummaries()
	h.svc = NewResolutionService(Dependencies{
		TxManager:      store,
		TimeEntries:    store.TimeEntries(),
		Summaries:      summaries,
		SummaryUpdater: summaries,
		Policies:       policysvc.NewPolicyLoader(store.Policies(), calendar),
		Schedules:      store.Schedules(),
		Alerts:         store.Alerts(),
		Employees:      store.Employees(),
		Approvers:      store.Approvers(),
		Notifications:  h.notifier,
		Overtime:       store.OvertimeQueue(),
		Calendar:       calendar,
	}, Config{Now: h.clock})
	return h
}

func (h *harness) record(t *testing.T, employeeID string, entryType timeentry.EntryType, at time.Time) timeentry.TimeEntry {
	t.Helper()
	e, err := h.store.TimeEntries().Create(context.Background(), timeentry.TimeEntry{
		OrgID:      testOrgID,
		EmployeeID: employeeID,
		EntryType:  entryType,
		Timestamp:  at,
		IsManual:   true,
	})
	require.NoError(t, err)
	return e
}

func (h *harness) summary(t *testing.T, employeeID string, date time.Time) workday.WorkdaySummary {
	t.Helper()
	s, err := h.store.WorkdaySummaries().GetByEmployeeAndDate(context.Background(), testOrgID, employeeID, date)
	require.NoError(t, err)
	return s
}

func entryTypes(entries []timeentry.TimeEntry) []timeentry.EntryType {
	out := make([]timeentry.EntryType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.EntryType)
	}
	return out
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestSweepSafety_CeilingAppliesWithAutoCloseDisabled(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{AutoCloseEnabled: boolPtr(false)})
	ctx := context.Background()

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))

	// 15 hours open: below the 16 hour default ceiling
	h.setNow(utc(2025, 6, 2, 22, 0))
	res, err := h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 0, res.Closed)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, h.store.EntriesFor(testEmployeeID), 1)

	h.setNow(utc(2025, 6, 3, 0, 30))
	res, err = h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Closed)

	entries := h.store.EntriesFor(testEmployeeID)
	require.Len(t, entries, 2)
	out := entries[1]
	assert.Equal(t, timeentry.EntryTypeClockOut, out.EntryType)
	assert.Equal(t, utc(2025, 6, 2, 23, 0), out.Timestamp)
	assert.True(t, out.IsAutomatic)
	require.NotNil(t, out.AutoCloseReason)
	assert.Equal(t, timeentry.AutoCloseReasonMaxOpenHours, *out.AutoCloseReason)

	sum := h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, workday.ResolutionStatusAutoClosedSafety, sum.ResolutionStatus)
	assert.Equal(t, workday.DataQualityEstimated, sum.DataQuality)
	assert.Equal(t, workday.OvertimeCalcStatusDirty, sum.OvertimeCalcStatus)
	assert.Equal(t, "MAX_OPEN_HOURS", sum.ResolutionFlags.AutoCloseReason)
	assert.True(t, sum.ResolutionFlags.ReviewRequired)

	alerts := h.store.AlertList()
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.TypeAutoClosedSafety, alerts[0].Type)
	assert.Equal(t, alert.SeverityCritical, alerts[0].Severity)
	require.NotNil(t, alerts[0].WorkdaySummaryID)
	assert.Equal(t, sum.ID, *alerts[0].WorkdaySummaryID)

	jobs := h.store.OvertimeJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, date(2025, 6, 2), jobs[0].Date)
}

func TestSweepSafety_FixedHourWaitsForTolerance(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{
		Timezone:         strPtr("Europe/Madrid"),
		Mode:             strPtr("AUTO_CLOSE"),
		AutoCloseEnabled: boolPtr(true),
		Strategy:         strPtr("FIXED_HOUR"),
		FixedHour:        intPtr(4),
		FixedMinute:      intPtr(0),
		ToleranceMinutes: intPtr(15),
	})
	ctx := context.Background()

	// 22:00 local on Monday 2025-06-02 (UTC+2)
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 20, 0))

	// 04:14 local on D+1
	h.setNow(utc(2025, 6, 3, 2, 14))
	res, err := h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Closed)
	assert.Len(t, h.store.EntriesFor(testEmployeeID), 1)

	// 04:15 local on D+1
	h.setNow(utc(2025, 6, 3, 2, 15))
	res, err = h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Closed)

	entries := h.store.EntriesFor(testEmployeeID)
	require.Len(t, entries, 2)
	assert.Equal(t, utc(2025, 6, 3, 2, 0), entries[1].Timestamp)
	assert.Equal(t, timeentry.AutoCloseReasonFixedHour, *entries[1].AutoCloseReason)

	// clock-in and close fall on different local dates
	jobs := h.store.OvertimeJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, date(2025, 6, 2), jobs[0].Date)
	assert.Equal(t, date(2025, 6, 3), jobs[1].Date)
}

func TestSweepSafety_ScheduleEndCrossingMidnight(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{
		Mode:             strPtr("AUTO_CLOSE"),
		AutoCloseEnabled: boolPtr(true),
		Strategy:         strPtr("SCHEDULE_END"),
		ToleranceMinutes: intPtr(15),
	})
	ctx := context.Background()

	// Monday night shift 22:00-06:00
	h.store.SetSchedule(testEmployeeID, 1, schedule.TimeSlot{
		SlotType:     schedule.SlotTypeWork,
		PresenceType: schedule.PresenceMandatory,
		CountsAsWork: true,
		StartMinutes: 22 * 60,
		EndMinutes:   6 * 60,
	})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 21, 55))

	h.setNow(utc(2025, 6, 3, 6, 14))
	res, err := h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Closed)

	h.setNow(utc(2025, 6, 3, 6, 15))
	res, err = h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Closed)

	entries := h.store.EntriesFor(testEmployeeID)
	require.Len(t, entries, 2)
	assert.Equal(t, utc(2025, 6, 3, 6, 0), entries[1].Timestamp)
	assert.Equal(t, timeentry.AutoCloseReasonScheduleEnd, *entries[1].AutoCloseReason)
}

func TestSweepSafety_ScheduleEndWithoutScheduleWaitsForCeiling(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{
		Mode:             strPtr("AUTO_CLOSE"),
		AutoCloseEnabled: boolPtr(true),
		Strategy:         strPtr("SCHEDULE_END"),
	})

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 2, 23, 0))

	res, err := h.svc.SweepSafety(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Closed)
	assert.Equal(t, 1, res.Skipped)
}

func TestSweepSafety_EmployeeWindowOverridesCeiling(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{MaxOpenHours: intPtr(16)})
	emp := testEmployeeID
	h.store.AddProtectedWindow(policy.ProtectedWindow{
		OrgID:                testOrgID,
		Name:                 "night-guard",
		Scope:                policy.WindowScopeEmployee,
		EmployeeID:           &emp,
		Active:               true,
		StartMinute:          20 * 60,
		EndMinute:            2 * 60,
		MaxOpenHoursOverride: intPtr(4),
	})

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 21, 0))
	h.setNow(utc(2025, 6, 3, 1, 0))

	res, err := h.svc.SweepSafety(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Closed)

	entries := h.store.EntriesFor(testEmployeeID)
	require.Len(t, entries, 2)
	assert.Equal(t, utc(2025, 6, 3, 1, 0), entries[1].Timestamp)

	sum := h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, []string{"night-guard"}, sum.ResolutionFlags.ProtectedWindows)
}

func TestSweepSafety_ClosesOpenBreakFirst(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))
	// break started after the 16 hour ceiling instant
	h.record(t, testEmployeeID, timeentry.EntryTypeBreakStart, utc(2025, 6, 2, 23, 30))
	h.setNow(utc(2025, 6, 3, 0, 30))

	res, err := h.svc.SweepSafety(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Closed)

	entries := h.store.EntriesFor(testEmployeeID)
	assert.Equal(t, []timeentry.EntryType{
		timeentry.EntryTypeClockIn,
		timeentry.EntryTypeBreakStart,
		timeentry.EntryTypeBreakEnd,
		timeentry.EntryTypeClockOut,
	}, entryTypes(entries))
	assert.Equal(t, utc(2025, 6, 2, 23, 30), entries[2].Timestamp)
	assert.Equal(t, utc(2025, 6, 2, 23, 30), entries[3].Timestamp)
	assert.True(t, entries[2].IsAutomatic)
}

func TestSweepSafety_AtMostOneCloseUnderConcurrentSweeps(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))
	h.setNow(utc(2025, 6, 3, 12, 0))

	const sweeps = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed int
	)
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.svc.SweepSafety(context.Background(), testOrgID)
			assert.NoError(t, err)
			mu.Lock()
			closed += res.Closed
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, closed)
	clockOuts := 0
	for _, e := range h.store.EntriesFor(testEmployeeID) {
		if e.EntryType == timeentry.EntryTypeClockOut {
			clockOuts++
		}
	}
	assert.Equal(t, 1, clockOuts)
}

type slowNotifier struct {
	*recordingNotifier
	delay time.Duration
}

func (n *slowNotifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	time.Sleep(n.delay)
	return n.recordingNotifier.QueueNotification(ctx, req)
}

func TestSweepRollover_ConcurrentSweepsNotifyOnce(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	impl := h.svc.(*ResolutionServiceImpl)
	impl.notifications = &slowNotifier{recordingNotifier: h.notifier, delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.SweepRollover(context.Background(), testOrgID, 7)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{testUserID, testManagerUserID}, h.notifier.recipients())
	ledger := h.summary(t, testEmployeeID, date(2025, 6, 2)).ResolutionFlags.PeekLedger(workday.IncidentUnresolvedMissingClockOut)
	assert.True(t, ledger.EmployeeNotified)
	assert.Equal(t, []string{testManagerUserID}, ledger.NotifiedApproverIDs)
}

type flakyApprovers struct {
	employee.ApproverResolver

	mu   sync.Mutex
	fail bool
}

func (f *flakyApprovers) ResolveApproverUsers(ctx context.Context, employeeID, orgID string, contextTag employee.ContextTag) ([]employee.Approver, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, errors.New("directory unavailable")
	}
	return f.ApproverResolver.ResolveApproverUsers(ctx, employeeID, orgID, contextTag)
}

func TestSweepRollover_ResumesAutoCloseEscalation(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	ctx := context.Background()
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))
	h.setNow(utc(2025, 6, 3, 12, 0))

	impl := h.svc.(*ResolutionServiceImpl)
	approvers := &flakyApprovers{ApproverResolver: impl.approvers, fail: true}
	impl.approvers = approvers

	res, err := h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Closed)
	assert.Equal(t, []string{testUserID}, h.notifier.recipients())

	ledger := h.summary(t, testEmployeeID, date(2025, 6, 2)).ResolutionFlags.PeekLedger(workday.IncidentAutoClosedSafety)
	assert.True(t, ledger.EscalationPending)
	assert.Empty(t, ledger.NotifiedApproverIDs)

	approvers.mu.Lock()
	approvers.fail = false
	approvers.mu.Unlock()

	res, err = h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, []string{testUserID, testManagerUserID}, h.notifier.recipients())

	ledger = h.summary(t, testEmployeeID, date(2025, 6, 2)).ResolutionFlags.PeekLedger(workday.IncidentAutoClosedSafety)
	assert.False(t, ledger.EscalationPending)
	assert.Equal(t, []string{testManagerUserID}, ledger.NotifiedApproverIDs)

	res, err = h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Escalated)
	assert.Len(t, h.notifier.recipients(), 2)
}

func TestSweepRollover_ZeroLookbackUsesConfiguredDefault(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 5, 30, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	impl := h.svc.(*ResolutionServiceImpl)
	impl.cfg.LookbackDays = 2

	res, err := h.svc.SweepRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)

	res, err = h.svc.SweepRollover(context.Background(), testOrgID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flagged)
}

type failingEntries struct {
	timeentry.TimeEntryRepository
	failFor string
}

func (f *failingEntries) GetLatestClockIn(ctx context.Context, employeeID string) (*timeentry.TimeEntry, error) {
	if employeeID == f.failFor {
		return nil, errors.New("connection reset")
	}
	return f.TimeEntryRepository.GetLatestClockIn(ctx, employeeID)
}

func TestSweepSafety_FailureIsIsolatedPerEmployee(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))
	h.record(t, testOtherEmpID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 8, 0))
	h.setNow(utc(2025, 6, 3, 12, 0))

	impl := h.svc.(*ResolutionServiceImpl)
	impl.entries = &failingEntries{TimeEntryRepository: impl.entries, failFor: testOtherEmpID}

	res, err := h.svc.SweepSafety(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 1, res.Closed)
	assert.Equal(t, 1, res.Failed)
}

func TestSweepSafety_CancelledClockInIsIgnored(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	in := h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 7, 0))
	require.NoError(t, h.store.CancelEntry(in.ID, testManagerUserID, "duplicate"))
	h.setNow(utc(2025, 6, 3, 12, 0))

	res, err := h.svc.SweepSafety(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)
	assert.Len(t, h.store.EntriesFor(testEmployeeID), 1)
}

func TestSweepRollover_FlagsAndEscalatesOnce(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	ctx := context.Background()

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	res, err := h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flagged)

	sum := h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, workday.ResolutionStatusUnresolvedMissingClockOut, sum.ResolutionStatus)
	assert.Equal(t, workday.DataQualityLow, sum.DataQuality)
	assert.Equal(t, workday.OvertimeCalcStatusDirty, sum.OvertimeCalcStatus)

	ledger := sum.ResolutionFlags.PeekLedger(workday.IncidentUnresolvedMissingClockOut)
	assert.True(t, ledger.EmployeeNotified)
	assert.Equal(t, []string{testManagerUserID}, ledger.NotifiedApproverIDs)

	alerts := h.store.AlertList()
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.TypeMissingClockOut, alerts[0].Type)
	assert.Equal(t, alert.StatusActive, alerts[0].Status)

	// repeated sweeps notify nobody new
	for i := 0; i < 3; i++ {
		_, err := h.svc.SweepRollover(ctx, testOrgID, 7)
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{testUserID, testManagerUserID}, h.notifier.recipients())
	assert.Len(t, h.store.AlertList(), 1)

	jobs := h.store.OvertimeJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Requests)

	// a newly resolvable approver is notified exactly once
	const hrUserID = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0099"
	h.store.SetApprovers(testEmployeeID, testManagerUserID, hrUserID)
	_, err = h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	_, err = h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{testUserID, testManagerUserID, hrUserID}, h.notifier.recipients())
	sum = h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, []string{testManagerUserID, hrUserID},
		sum.ResolutionFlags.PeekLedger(workday.IncidentUnresolvedMissingClockOut).NotifiedApproverIDs)
}

func TestSweepRollover_RespectsNotificationSwitches(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{
		NotifyEmployee:  boolPtr(false),
		NotifyApprovers: boolPtr(false),
	})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	res, err := h.svc.SweepRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flagged)
	assert.Empty(t, h.notifier.recipients())
}

func TestSweepRollover_IgnoresPunchesFromToday(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{Timezone: strPtr("Asia/Jakarta")})

	// 08:00 local today (UTC+7)
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 3, 1, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	res, err := h.svc.SweepRollover(context.Background(), testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)
	assert.Empty(t, h.store.AlertList())
}

func TestSweepRollover_NeverDowngradesAutoClosed(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.store.PutSummary(workday.WorkdaySummary{
		OrgID:            testOrgID,
		EmployeeID:       testEmployeeID,
		Date:             date(2025, 6, 2),
		ResolutionStatus: workday.ResolutionStatusAutoClosedSafety,
		DataQuality:      workday.DataQualityEstimated,
	})
	h.setNow(utc(2025, 6, 3, 10, 0))

	res, err := h.svc.SweepRollover(context.Background(), testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Flagged)
	assert.Equal(t, 1, res.Skipped)

	sum := h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, workday.ResolutionStatusAutoClosedSafety, sum.ResolutionStatus)
	assert.Empty(t, h.notifier.recipients())
}

func TestRolloverThenSafety_EndsAutoClosed(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	ctx := context.Background()

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))

	_, err := h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	_, err = h.svc.SweepSafety(ctx, testOrgID)
	require.NoError(t, err)
	res, err := h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scanned)

	sum := h.summary(t, testEmployeeID, date(2025, 6, 2))
	assert.Equal(t, workday.ResolutionStatusAutoClosedSafety, sum.ResolutionStatus)
	assert.NotNil(t, sum.ResolutionFlags.DetectedAt)
	assert.NotNil(t, sum.ResolutionFlags.UnresolvedMissingClockOut)
	assert.NotNil(t, sum.ResolutionFlags.AutoClosedSafety)
	assert.Len(t, h.store.AlertList(), 2)
}

func TestSweep_RequiresOrganization(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})

	_, err := h.svc.SweepRollover(context.Background(), "", 7)
	assert.ErrorIs(t, err, resolution.ErrOrganizationRequired)
	_, err = h.svc.SweepSafety(context.Background(), "")
	assert.ErrorIs(t, err, resolution.ErrOrganizationRequired)
}

func TestPreviewOpenPunch(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{
		Mode:             strPtr("AUTO_CLOSE"),
		AutoCloseEnabled: boolPtr(true),
		Strategy:         strPtr("FIXED_HOUR"),
		FixedHour:        intPtr(18),
		FixedMinute:      intPtr(0),
		ToleranceMinutes: intPtr(30),
	})
	ctx := context.Background()
	req := resolution.OpenPunchRequest{OrgID: testOrgID, EmployeeID: testEmployeeID}

	_, err := h.svc.PreviewOpenPunch(ctx, req)
	assert.ErrorIs(t, err, resolution.ErrNoOpenPunch)

	in := h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 2, 17, 30))

	preview, err := h.svc.PreviewOpenPunch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, in.ID, preview.ClockInID)
	assert.Equal(t, "2025-06-02", preview.LocalDate)
	assert.Equal(t, "8.5", preview.OpenHours.String())
	assert.Equal(t, resolution.ActionWait, preview.Action)
	require.NotNil(t, preview.WaitUntil)
	assert.Equal(t, utc(2025, 6, 2, 18, 30), *preview.WaitUntil)
	assert.Nil(t, preview.CloseAt)

	h.setNow(utc(2025, 6, 2, 19, 0))
	preview, err = h.svc.PreviewOpenPunch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionAutoClosePolicy, preview.Action)
	require.NotNil(t, preview.CloseAt)
	assert.Equal(t, utc(2025, 6, 2, 18, 0), *preview.CloseAt)
	assert.Equal(t, "FIXED_HOUR", preview.Reason)

	// previews never write
	assert.Len(t, h.store.EntriesFor(testEmployeeID), 1)
}

func TestGetWorkday(t *testing.T) {
	h := newHarness(t, policy.PolicySettings{})
	ctx := context.Background()

	_, err := h.svc.GetWorkday(ctx, resolution.WorkdayRequest{OrgID: testOrgID, EmployeeID: testEmployeeID, Date: "02-06-2025"})
	assert.Error(t, err)

	_, err = h.svc.GetWorkday(ctx, resolution.WorkdayRequest{OrgID: testOrgID, EmployeeID: testEmployeeID, Date: "2025-06-02"})
	assert.ErrorIs(t, err, workday.ErrSummaryNotFound)

	h.record(t, testEmployeeID, timeentry.EntryTypeClockIn, utc(2025, 6, 2, 9, 0))
	h.setNow(utc(2025, 6, 3, 10, 0))
	_, err = h.svc.SweepRollover(ctx, testOrgID, 7)
	require.NoError(t, err)

	resp, err := h.svc.GetWorkday(ctx, resolution.WorkdayRequest{OrgID: testOrgID, EmployeeID: testEmployeeID, Date: "2025-06-02"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", resp.Date)
	assert.Equal(t, string(workday.ResolutionStatusUnresolvedMissingClockOut), resp.ResolutionStatus)
	assert.Equal(t, workday.FlagsVersion, resp.ResolutionFlags.Version)
}
