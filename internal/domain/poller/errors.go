package poller

import "errors"

// Sentinel kinds for poller errors.
var (
	ErrStopped  = errors.New("poller stopped")
	ErrInFlight = errors.New("poll already in flight")
	ErrStale    = errors.New("poll result discarded")
)
