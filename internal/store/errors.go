package store

import "errors"

var ErrQueryFailed = errors.New("store: query failed")
