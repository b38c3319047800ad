package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
)

// closePunch writes the synthetic closing entries in one transaction.
// The clock-in row is locked and re-checked so concurrent sweeps and a late manual
// clock-out cannot both close the same punch.
func (s *ResolutionServiceImpl) closePunch(ctx context.Context, req timeentry.CloseRequest, now time.Time) (timeentry.CloseResult, error) {
	var result timeentry.CloseResult

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		clockIn, err := s.entries.LockForClose(txCtx, req.ClockIn.ID)
		if errors.Is(err, timeentry.ErrTimeEntryNotFound) {
			return timeentry.ErrPunchAlreadyClosed
		}
		if err != nil {
			return fmt.Errorf("failed to lock clock-in: %w", err)
		}
		if clockIn.IsCancelled {
			return timeentry.ErrPunchAlreadyClosed
		}

		closed, err := s.entries.HasClockOutAfter(txCtx, clockIn.EmployeeID, clockIn.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to check clock-out: %w", err)
		}
		if closed {
			return timeentry.ErrPunchAlreadyClosed
		}

		last, err := s.entries.GetLastEntryAfter(txCtx, clockIn.EmployeeID, clockIn.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to get last entry: %w", err)
		}

		closeAt := req.CloseAt
		if closeAt.Before(clockIn.Timestamp) {
			closeAt = clockIn.Timestamp
		}
		// The clock-out never precedes an entry already recorded for this punch.
		if last != nil && last.Timestamp.After(closeAt) {
			closeAt = last.Timestamp
		}
		if closeAt.After(now) {
			return timeentry.ErrCloseInFuture
		}

		reason := req.Reason
		if last != nil && last.EntryType == timeentry.EntryTypeBreakStart {
			breakEnd, err := s.entries.Create(txCtx, s.syntheticEntry(clockIn, timeentry.EntryTypeBreakEnd, closeAt, reason, now))
			if err != nil {
				return fmt.Errorf("failed to create break end: %w", err)
			}
			result.BreakEnd = &breakEnd
		}

		clockOut, err := s.entries.Create(txCtx, s.syntheticEntry(clockIn, timeentry.EntryTypeClockOut, closeAt, reason, now))
		if err != nil {
			return fmt.Errorf("failed to create clock-out: %w", err)
		}
		result.ClockOut = clockOut
		return nil
	})
	if err != nil {
		return timeentry.CloseResult{}, err
	}
	return result, nil
}

func (s *ResolutionServiceImpl) syntheticEntry(clockIn timeentry.TimeEntry, entryType timeentry.EntryType, at time.Time, reason timeentry.AutoCloseReason, now time.Time) timeentry.TimeEntry {
	r := reason
	return timeentry.TimeEntry{
		OrgID:           clockIn.OrgID,
		EmployeeID:      clockIn.EmployeeID,
		EntryType:       entryType,
		Timestamp:       at,
		IsAutomatic:     true,
		AutoCloseReason: &r,
		CreatedAt:       now,
	}
}
