package formula

import "errors"

// Sentinel kinds for formula errors.
var (
	ErrEmpty           = errors.New("formula is empty")
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownVariable = errors.New("unknown formula variable")
	ErrDivideByZero    = errors.New("division by zero")
	ErrNotFinite       = errors.New("formula result is not finite")
)
