package alert

import "context"

type AlertRepository interface {
	// Upsert creates the alert or refreshes severity, title, description, status
	// and summary link of the existing (employee, date, type) row
	Upsert(ctx context.Context, a Alert) (Alert, error)
}
