package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("competition not found")
	ErrInvalidScore = errors.New("invalid score")
	ErrCorruptField = errors.New("corrupt score field")
	ErrNilClient    = errors.New("redis client is nil")
)
