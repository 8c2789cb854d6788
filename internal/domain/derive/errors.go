package derive

import "errors"

// Sentinel kinds for derived score errors.
var (
	ErrNotCarryForward = errors.New("criterion is not carry-forward")
	ErrNotPrejudged    = errors.New("criterion is not prejudged")
	ErrInvalidSource   = errors.New("source segment is not earlier than target")
	ErrNoJudges        = errors.New("no judges to fan out to")
	ErrInvalidRaw      = errors.New("invalid raw score")
	ErrFanOut          = errors.New("fan-out failed")
)
