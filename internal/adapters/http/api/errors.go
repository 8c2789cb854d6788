package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/derive"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrMismatch   = errors.New("path and body disagree")
)

// Error tags an underlying error with the operation that failed and an
// optional kind. Both the kind and the cause match errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns a bare kind error for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// rejections are domain rule violations on well-formed requests.
var rejections = []error{ //nolint:gochecknoglobals // read-only list
	service.ErrUnknownJudge,
	service.ErrUnknownContestant,
	service.ErrCriterionInactive,
	service.ErrDerivedCriterion,
	service.ErrScoreOutOfRange,
	derive.ErrNotCarryForward,
	derive.ErrNotPrejudged,
	derive.ErrInvalidSource,
	derive.ErrNoJudges,
	derive.ErrInvalidRaw,
}

// classify maps an error to a status code and a machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrMismatch):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, service.ErrInvalidCompetition):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, service.ErrFanOut):
		return http.StatusBadGateway, "fan_out_failed"
	case errors.Is(err, service.ErrInFlight):
		return http.StatusConflict, "in_flight"
	case errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, "unavailable"
	}
	for _, kind := range rejections {
		if errors.Is(err, kind) {
			return http.StatusUnprocessableEntity, "rejected"
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
