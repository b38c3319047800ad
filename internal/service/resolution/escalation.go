package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
)

// escalationNotice is the content sent for one incident.
type escalationNotice struct {
	Incident        workday.Incident
	Type            notification.NotificationType
	EmployeeTitle   string
	EmployeeMessage string
	ApproverTitle   string
	ApproverMessage func(employeeName string) string
	Data            map[string]interface{}
}

// escalate claims the employee and any approvers not yet recorded for the
// incident, then notifies only what this call claimed. Claims go through the
// versioned summary write, so overlapping sweeps never notify anyone twice.
// A failed send is logged and not retried. A failed lookup leaves the ledger
// pending so a later sweep can finish the escalation.
func (s *ResolutionServiceImpl) escalate(ctx context.Context, summary workday.WorkdaySummary, org policy.OrganizationPolicy, notice escalationNotice, now time.Time) error {
	ledger := summary.ResolutionFlags.PeekLedger(notice.Incident)

	notifyEmployee := s.notifications != nil && org.NotifyEmployee
	notifyApprovers := s.notifications != nil && org.NotifyApprovers && s.approvers != nil
	if !notifyEmployee && !notifyApprovers && !ledger.EscalationPending {
		return nil
	}

	complete := true
	var (
		emp       employee.Employee
		empUserID string
	)
	if (notifyEmployee || notifyApprovers) && s.employees != nil {
		e, err := s.employees.GetByID(ctx, summary.EmployeeID)
		if err != nil {
			complete = false
			slog.Warn("Resolution: employee lookup failed",
				"employee_id", summary.EmployeeID,
				"error", err)
		} else {
			emp = e
			if e.UserID != nil {
				empUserID = *e.UserID
			}
		}
	}

	var candidates []string
	if notifyApprovers {
		approvers, err := s.approvers.ResolveApproverUsers(ctx, summary.EmployeeID, summary.OrgID, employee.ContextAttendance)
		if err != nil {
			complete = false
			slog.Warn("Resolution: approver lookup failed",
				"employee_id", summary.EmployeeID,
				"error", err)
		}
		for _, a := range approvers {
			if a.UserID == "" || a.UserID == empUserID || slices.Contains(candidates, a.UserID) {
				continue
			}
			candidates = append(candidates, a.UserID)
		}
	}

	var (
		claimEmployee bool
		claimed       []string
	)
	_, changed, err := s.updateSummary(ctx, summary.Key(), func(sum *workday.WorkdaySummary) (bool, error) {
		claimEmployee, claimed = false, nil

		l := sum.ResolutionFlags.Ledger(notice.Incident)
		if notifyEmployee && empUserID != "" && !l.EmployeeNotified {
			l.EmployeeNotified = true
			l.EmployeeNotifiedAt = &now
			claimEmployee = true
		}
		for _, id := range candidates {
			if !l.HasApprover(id) {
				claimed = append(claimed, id)
			}
		}
		l.AddApprovers(claimed...)

		cleared := false
		if complete && l.EscalationPending {
			l.EscalationPending = false
			cleared = true
		}
		if !claimEmployee && len(claimed) == 0 && !cleared {
			return false, nil
		}
		l.LastEscalatedAt = &now
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record escalation: %w", err)
	}
	if !changed {
		return nil
	}

	if claimEmployee {
		s.send(ctx, summary.OrgID, empUserID, notice.Type, notice.EmployeeTitle, notice.EmployeeMessage, notice.Data)
	}
	if len(claimed) > 0 {
		name := emp.FullName
		if name == "" {
			name = "An employee"
		}
		for _, id := range claimed {
			s.send(ctx, summary.OrgID, id, notice.Type, notice.ApproverTitle, notice.ApproverMessage(name), notice.Data)
		}
	}
	return nil
}

func (s *ResolutionServiceImpl) send(ctx context.Context, orgID, recipientID string, notifType notification.NotificationType, title, message string, data map[string]interface{}) {
	err := s.notifications.QueueNotification(ctx, notification.CreateNotificationRequest{
		OrgID:       orgID,
		RecipientID: recipientID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Data:        data,
	})
	if err != nil {
		slog.Warn("Resolution: failed to queue notification",
			"recipient_id", recipientID,
			"type", notifType,
			"error", err)
	}
}
