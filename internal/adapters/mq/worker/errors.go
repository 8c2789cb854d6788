package worker

import "errors"

// Sentinel kinds for listener errors.
var (
	ErrRunning = errors.New("listener already running")
)
