package agent

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/maze/mazetest"
)

func TestNewRun(t *testing.T) {
	run := NewRun("run-123", "corridor")

	if run.ID != "run-123" {
		t.Errorf("NewRun().ID = %q, want %q", run.ID, "run-123")
	}
	if run.MapName != "corridor" {
		t.Errorf("NewRun().MapName = %q, want %q", run.MapName, "corridor")
	}
	if run.Status != RunStatusPending {
		t.Errorf("NewRun().Status = %q, want %q", run.Status, RunStatusPending)
	}
	if run.StartTime.IsZero() {
		t.Error("NewRun().StartTime is zero, want current time")
	}
}

func TestRun_Start(t *testing.T) {
	run := NewRun("run", "map")
	before := time.Now()
	if err := run.Start(); err != nil {
		t.Fatalf("Run.Start() error = %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("Run.Start() status = %q, want %q", run.Status, RunStatusRunning)
	}
	if run.StartTime.Before(before) {
		t.Error("Run.Start() did not update StartTime")
	}
	if err := run.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Run.Start() error = %v, want ErrInvalidTransition", err)
	}
}

func TestRun_Finish(t *testing.T) {
	t.Run("terminal statuses", func(t *testing.T) {
		for _, status := range []RunStatus{RunStatusSucceeded, RunStatusExhausted, RunStatusCancelled, RunStatusFailed} {
			run := NewRun("run", "map")
			_ = run.Start()
			if err := run.Finish(status, nil); err != nil {
				t.Errorf("Finish(%s) error = %v", status, err)
			}
			if run.Status != status {
				t.Errorf("Status = %s, want %s", run.Status, status)
			}
			if run.EndTime.IsZero() {
				t.Errorf("Finish(%s) did not set EndTime", status)
			}
		}
	})

	t.Run("records error", func(t *testing.T) {
		run := NewRun("run", "map")
		_ = run.Start()
		_ = run.Finish(RunStatusFailed, errors.New("broken route"))
		if run.Error != "broken route" {
			t.Errorf("Error = %q, want %q", run.Error, "broken route")
		}
	})

	t.Run("non-terminal status", func(t *testing.T) {
		run := NewRun("run", "map")
		_ = run.Start()
		if err := run.Finish(RunStatusRunning, nil); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("Finish(running) error = %v, want ErrInvalidStatus", err)
		}
	})

	t.Run("not started", func(t *testing.T) {
		run := NewRun("run", "map")
		if err := run.Finish(RunStatusSucceeded, nil); !errors.Is(err, ErrRunNotStarted) {
			t.Errorf("Finish() error = %v, want ErrRunNotStarted", err)
		}
	})

	t.Run("already finished", func(t *testing.T) {
		run := NewRun("run", "map")
		_ = run.Start()
		_ = run.Finish(RunStatusSucceeded, nil)
		if err := run.Finish(RunStatusFailed, nil); !errors.Is(err, ErrRunTerminated) {
			t.Errorf("Finish() error = %v, want ErrRunTerminated", err)
		}
	})
}

func TestRun_Record(t *testing.T) {
	g := mazetest.New(
		"XXXX",
		"XEoX",
		"XXXX",
	)
	a := New(g)
	if _, err := a.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	run := NewRun("run", "map")
	run.Record(a)

	if run.Steps != 1 || run.Collected != 1 || run.TargetFood != 1 {
		t.Errorf("Record() counters = %d/%d/%d, want 1/1/1", run.Steps, run.Collected, run.TargetFood)
	}
	if run.Score != 9 {
		t.Errorf("Record() Score = %d, want 9", run.Score)
	}
	if run.Position != maze.Pos(1, 2) {
		t.Errorf("Record() Position = %s, want (1,2)", run.Position)
	}
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusPending, false},
		{RunStatusRunning, false},
		{RunStatusSucceeded, true},
		{RunStatusExhausted, true},
		{RunStatusCancelled, true},
		{RunStatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if !tt.status.IsValid() {
			t.Errorf("%s.IsValid() = false", tt.status)
		}
	}
	if RunStatus("paused").IsValid() {
		t.Error("RunStatus(paused).IsValid() = true")
	}
}

func TestRun_Duration(t *testing.T) {
	run := NewRun("run", "map")
	run.StartTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run.EndTime = run.StartTime.Add(3 * time.Second)
	if got := run.Duration(); got != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", got)
	}
}
