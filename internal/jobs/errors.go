package jobs

import "errors"

var (
	ErrNoTask        = errors.New("jobs: task is required")
	ErrNoSchedule    = errors.New("jobs: schedule is required")
	ErrListTenants   = errors.New("jobs: failed to list tenants")
	ErrTenantJob     = errors.New("jobs: tenant job failed")
	ErrInvalidConfig = errors.New("jobs: invalid configuration")
)
