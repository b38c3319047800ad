package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/overtime"
)

type overtimeQueue struct {
	s *Store
}

func (s *Store) OvertimeQueue() overtime.Queue {
	return &overtimeQueue{s: s}
}

// EnqueueOvertimeWorkdayJob keeps one job per employee-day and refreshes its request time.
func (q *overtimeQueue) EnqueueOvertimeWorkdayJob(_ context.Context, job overtime.Job) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	key := summaryKey(job.OrgID, job.EmployeeID, job.Date)
	existing := q.s.overtimeJobs[key]
	q.s.overtimeJobs[key] = OvertimeJob{
		Job:         job,
		RequestedAt: q.s.now(),
		Requests:    existing.Requests + 1,
	}
	return nil
}

// OvertimeJobs returns queued jobs ordered by employee and date.
func (s *Store) OvertimeJobs() []OvertimeJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OvertimeJob, 0, len(s.overtimeJobs))
	for _, j := range s.overtimeJobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].EmployeeID != out[k].EmployeeID {
			return out[i].EmployeeID < out[k].EmployeeID
		}
		return out[i].Date.Before(out[k].Date)
	})
	return out
}
