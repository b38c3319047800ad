package employee

import "time"

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

type Employee struct {
	ID               string
	UserID           *string
	OrgID            string
	ManagerID        *string
	FullName         string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Approver is a user allowed to review an employee's attendance.
type Approver struct {
	UserID string
}

// ContextTag tells the approver lookup which workflow is asking.
type ContextTag string

const (
	ContextAttendance ContextTag = "attendance"
)
