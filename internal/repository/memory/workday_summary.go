package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/google/uuid"
)

type workdaySummaryRepository struct {
	s *Store
}

// SummaryStore is both the summary repository and its recompute hook.
type SummaryStore interface {
	workday.WorkdaySummaryRepository
	workday.SummaryUpdater
}

func (s *Store) WorkdaySummaries() SummaryStore {
	return &workdaySummaryRepository{s: s}
}

func (r *workdaySummaryRepository) GetByEmployeeAndDate(_ context.Context, orgID, employeeID string, date time.Time) (workday.WorkdaySummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum, ok := r.s.summaries[summaryKey(orgID, employeeID, date)]
	if !ok {
		return workday.WorkdaySummary{}, workday.ErrSummaryNotFound
	}
	sum.ResolutionFlags = sum.ResolutionFlags.Clone()
	return sum, nil
}

// UpdateResolution writes the resolution fields when the stored version matches.
func (r *workdaySummaryRepository) UpdateResolution(_ context.Context, summary workday.WorkdaySummary) (workday.WorkdaySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := summaryKey(summary.OrgID, summary.EmployeeID, summary.Date)
	stored, ok := r.s.summaries[key]
	if !ok {
		return workday.WorkdaySummary{}, workday.ErrSummaryNotFound
	}
	if stored.Version != summary.Version {
		return workday.WorkdaySummary{}, workday.ErrVersionConflict
	}

	stored.ResolutionStatus = summary.ResolutionStatus
	stored.DataQuality = summary.DataQuality
	stored.ResolutionFlags = summary.ResolutionFlags.Clone()
	stored.OvertimeCalcStatus = summary.OvertimeCalcStatus
	stored.OvertimeCalcUpdatedAt = summary.OvertimeCalcUpdatedAt
	stored.Version++
	stored.UpdatedAt = r.s.now()
	r.s.summaries[key] = stored

	stored.ResolutionFlags = stored.ResolutionFlags.Clone()
	return stored, nil
}

func (r *workdaySummaryRepository) ListPendingEscalations(_ context.Context, orgID string, from, to time.Time) ([]workday.WorkdaySummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []workday.WorkdaySummary
	for _, sum := range r.s.summaries {
		if sum.OrgID != orgID || sum.ResolutionStatus != workday.ResolutionStatusAutoClosedSafety {
			continue
		}
		if sum.Date.Before(from) || sum.Date.After(to) {
			continue
		}
		if l := sum.ResolutionFlags.AutoClosedSafety; l == nil || !l.EscalationPending {
			continue
		}
		sum.ResolutionFlags = sum.ResolutionFlags.Clone()
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// UpdateWorkdaySummary makes sure a summary exists for the local date of instant.
func (r *workdaySummaryRepository) UpdateWorkdaySummary(_ context.Context, employeeID, orgID string, instant time.Time) (*workday.WorkdaySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	date := r.s.calendar.Resolve(instant, r.s.timezoneLocked(orgID)).Date
	key := summaryKey(orgID, employeeID, date)

	sum, ok := r.s.summaries[key]
	if !ok {
		now := r.s.now()
		sum = workday.WorkdaySummary{
			ID:                 uuid.New().String(),
			OrgID:              orgID,
			EmployeeID:         employeeID,
			Date:               date,
			ResolutionStatus:   workday.ResolutionStatusOK,
			DataQuality:        workday.DataQualityHigh,
			ResolutionFlags:    workday.ResolutionFlags{Version: workday.FlagsVersion},
			OvertimeCalcStatus: workday.OvertimeCalcStatusClean,
			Version:            1,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		r.s.summaries[key] = sum
	}

	out := sum
	out.ResolutionFlags = sum.ResolutionFlags.Clone()
	return &out, nil
}

// PutSummary stores a summary as-is, replacing any existing row for its key.
func (s *Store) PutSummary(summary workday.WorkdaySummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	if summary.Version == 0 {
		summary.Version = 1
	}
	s.summaries[summaryKey(summary.OrgID, summary.EmployeeID, summary.Date)] = summary
}
