package agent

import (
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// RunStatus represents the lifecycle status of a simulation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Not yet started
	RunStatusRunning   RunStatus = "running"   // Stepping
	RunStatusSucceeded RunStatus = "succeeded" // Quota met on an exit
	RunStatusExhausted RunStatus = "exhausted" // Step budget spent
	RunStatusCancelled RunStatus = "cancelled" // Context cancelled
	RunStatusFailed    RunStatus = "failed"    // Terminated with error
)

// IsTerminal returns true if no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusExhausted, RunStatusCancelled, RunStatusFailed:
		return true
	default:
		return false
	}
}

// IsValid returns true if the status is recognized.
func (s RunStatus) IsValid() bool {
	return s == RunStatusPending || s == RunStatusRunning || s.IsTerminal()
}

// String returns the string representation of the status.
func (s RunStatus) String() string {
	return string(s)
}

// Run is the summary record of one simulation.
type Run struct {
	ID         string        `json:"id"`
	MapName    string        `json:"map_name"`
	Status     RunStatus     `json:"status"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time,omitempty"`
	Attempts   int           `json:"attempts"`
	Steps      int           `json:"steps"`
	Collected  int           `json:"collected"`
	TargetFood int           `json:"target_food"`
	TotalFood  int           `json:"total_food"`
	Score      int           `json:"score"`
	Position   maze.Position `json:"position"`
	Error      string        `json:"error,omitempty"`
}

// NewRun creates a pending run.
func NewRun(id, mapName string) *Run {
	return &Run{
		ID:        id,
		MapName:   mapName,
		Status:    RunStatusPending,
		StartTime: time.Now(),
	}
}

// Start marks the run as running.
func (r *Run) Start() error {
	if r.Status != RunStatusPending {
		return ErrInvalidTransition
	}
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
	return nil
}

// Record copies the agent's counters into the run.
func (r *Run) Record(a *Agent) {
	r.Steps = a.Steps()
	r.Collected = a.Collected()
	r.TargetFood = a.TargetFood()
	r.Score = a.Score()
	r.Position = a.Position()
}

// Finish moves a running run into a terminal status. err may be nil.
func (r *Run) Finish(status RunStatus, err error) error {
	if !status.IsTerminal() {
		return ErrInvalidStatus
	}
	switch {
	case r.Status == RunStatusPending:
		return ErrRunNotStarted
	case r.Status.IsTerminal():
		return ErrRunTerminated
	}
	r.Status = status
	r.EndTime = time.Now()
	if err != nil {
		r.Error = err.Error()
	}
	return nil
}

// Duration returns the elapsed time of the run, up to now while running.
func (r *Run) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
