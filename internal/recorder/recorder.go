package recorder

import (
	"time"

	"PortfolioRebalancer/internal/model"
	"PortfolioRebalancer/internal/rebalance"
)

// Run triggers.
const (
	TriggerScheduled = "SCHEDULED"
	TriggerManual    = "MANUAL"
	TriggerCommand   = "COMMAND"
)

// Run statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunSnapshot holds a successful rebalance computation.
type RunSnapshot struct {
	ID      string
	Trigger string
	Plan    *rebalance.Plan
}

// FailureEvent holds a rebalance computation that aborted.
type FailureEvent struct {
	ID      string
	Trigger string
	Err     error
}

// RunSummary is one row of run history.
type RunSummary struct {
	ID         string
	Timestamp  time.Time
	Trigger    string
	Status     string
	TotalValue float64
	NetCash    float64
	Buys       int
	Sells      int
	Failed     int
	Error      string
}

// Recorder persists rebalance runs for later review.
type Recorder interface {
	RecordRun(snap *RunSnapshot) error
	RecordFailure(evt *FailureEvent) error
	RecentRuns(limit int) ([]RunSummary, error)
	Records(runID string) ([]model.ComputedRecord, error)
	Close() error
}
