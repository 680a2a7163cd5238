package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrParseURL           = errors.New("redis: failed to parse connection URL")
	ErrNotReady           = errors.New("redis: no successful ping within the retry budget")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)
