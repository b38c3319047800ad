package timeentry

import "errors"

var (
	ErrTimeEntryNotFound  = errors.New("time entry not found")
	ErrNoOpenPunch        = errors.New("employee has no open punch")
	ErrPunchAlreadyClosed = errors.New("punch was closed by another process")
	ErrCloseInFuture      = errors.New("close instant is in the future")
)
