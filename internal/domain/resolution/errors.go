package resolution

import "errors"

var (
	ErrOrganizationRequired = errors.New("organization id is required")
	ErrNoOpenPunch          = errors.New("employee has no open punch")
)
