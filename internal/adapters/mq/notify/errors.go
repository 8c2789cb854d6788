package notify

import "errors"

// Sentinel kinds for bus errors.
var (
	ErrClosed    = errors.New("notification bus closed")
	ErrNilClient = errors.New("redis client is nil")
)
