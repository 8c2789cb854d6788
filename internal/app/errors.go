package service

import (
	"errors"

	"github.com/okian/podium/internal/domain/derive"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/poller"
)

// Sentinel kinds for service errors. The HTTP layer maps them to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidScore       = model.ErrInvalidScore
	ErrInvalidConfig      = model.ErrInvalidConfig
	ErrInvalidCompetition = model.ErrInvalidCompetition
	ErrUnknownJudge       = errors.New("unknown judge")
	ErrUnknownContestant  = errors.New("unknown contestant")
	ErrCriterionInactive  = errors.New("criterion is not active")
	ErrDerivedCriterion   = errors.New("criterion is derived and cannot be judged")
	ErrScoreOutOfRange    = errors.New("score exceeds criterion maximum")
	ErrFanOut             = derive.ErrFanOut
	ErrInFlight           = poller.ErrInFlight
	ErrStopped            = errors.New("service stopped")
)
