package model

import "time"

// ScoreKey identifies one (segment, contestant, judge, criterion) tuple.
type ScoreKey struct {
	Segment    string `json:"segment" validate:"required"`
	Contestant string `json:"contestant" validate:"required"`
	Judge      string `json:"judge" validate:"required"`
	Criterion  string `json:"criterion" validate:"required"`
}

// Valid reports whether every identifier is set.
func (k ScoreKey) Valid() bool {
	return k.Segment != "" && k.Contestant != "" && k.Judge != "" && k.Criterion != ""
}

// Score is the atomic scoring fact. Values are rounded to two decimals at write.
type Score struct {
	ScoreKey
	Value float64 `json:"value" validate:"min=0"`
}

// Notification is a change event on the score channel. Segment, contestant,
// judge and criterion are optional; Deleted marks a score removal.
type Notification struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competition_id"`
	Segment       string    `json:"segment,omitempty"`
	Contestant    string    `json:"contestant,omitempty"`
	Judge         string    `json:"judge,omitempty"`
	Criterion     string    `json:"criterion,omitempty"`
	Deleted       bool      `json:"deleted,omitempty"`
	TS            time.Time `json:"ts"`
}

// Key returns the score tuple carried by the notification.
func (n Notification) Key() ScoreKey {
	return ScoreKey{Segment: n.Segment, Contestant: n.Contestant, Judge: n.Judge, Criterion: n.Criterion}
}
