package workday

import "errors"

var (
	ErrSummaryNotFound    = errors.New("workday summary not found")
	ErrVersionConflict    = errors.New("workday summary was modified concurrently")
	ErrTransitionRejected = errors.New("resolution status transition not allowed")
)
