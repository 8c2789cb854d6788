package model

import "errors"

// Sentinel kinds for model validation.
var (
	ErrInvalidCompetition = errors.New("invalid competition")
	ErrInvalidConfig      = errors.New("invalid ranking config")
	ErrInvalidScore       = errors.New("invalid score")
)
