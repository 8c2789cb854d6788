// Package simulate drives a running podium service with a synthetic judging
// session and checks the rankings it serves against a local computation.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	FixturePath   string        // Competition fixture used as the template
	Contestants   int           // Extra generated contestants added to the first segment
	Workers       int           // Number of concurrent submitters
	RatePerSecond float64       // Score submissions per second; 0 means unlimited
	Seed          uint64        // Seed for generated score values
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for submitted scores
	Verbose       bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	CompetitionID    string
	ScoresGenerated  int
	ScoresSubmitted  int
	ScoresSuccessful int
	ScoresFailed     int
	CriteriaOpened   int
	SegmentsVerified int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
