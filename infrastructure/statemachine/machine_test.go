package statemachine

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/maze/mazetest"
)

func newTestInterpreter(t *testing.T, a *agent.Agent, maxSteps int) *Interpreter {
	t.Helper()

	machine, err := NewRunMachine()
	if err != nil {
		t.Fatalf("NewRunMachine() error = %v", err)
	}
	ctx := NewContext(agent.NewRun("run-1", "test"), a, maxSteps)
	interp := NewInterpreter(machine, ctx)
	interp.Start()
	t.Cleanup(interp.Stop)
	return interp
}

func finishedAgent(t *testing.T) *agent.Agent {
	t.Helper()

	a := agent.New(mazetest.New(
		"XXXX",
		"XESX",
		"XXXX",
	))
	if _, err := a.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !a.Finished() {
		t.Fatal("agent did not reach the exit")
	}
	return a
}

func TestNewRunMachine(t *testing.T) {
	t.Parallel()

	machine, err := NewRunMachine()
	if err != nil {
		t.Fatalf("NewRunMachine() error = %v", err)
	}
	if machine == nil {
		t.Fatal("NewRunMachine() returned nil machine")
	}
}

func TestInterpreter_StartsPending(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 10)
	if got := interp.Status(); got != agent.RunStatusPending {
		t.Errorf("Status() = %s, want pending", got)
	}
	if !interp.Matches(agent.RunStatusPending) {
		t.Error("Matches(pending) = false")
	}
	if interp.IsTerminal() {
		t.Error("IsTerminal() = true for a pending run")
	}
}

func TestInterpreter_Succeed(t *testing.T) {
	t.Parallel()

	a := finishedAgent(t)
	interp := newTestInterpreter(t, a, 10)

	if err := interp.Transition(agent.RunStatusRunning, nil); err != nil {
		t.Fatalf("Transition(running) error = %v", err)
	}
	if got := interp.Context().Run.Status; got != agent.RunStatusRunning {
		t.Errorf("Run.Status = %s, want running", got)
	}
	if err := interp.Transition(agent.RunStatusSucceeded, nil); err != nil {
		t.Fatalf("Transition(succeeded) error = %v", err)
	}

	run := interp.Context().Run
	if run.Status != agent.RunStatusSucceeded {
		t.Errorf("Run.Status = %s, want succeeded", run.Status)
	}
	if run.Steps != 1 || run.Score != -1 {
		t.Errorf("Run counters = %d steps, score %d, want 1 and -1", run.Steps, run.Score)
	}
	if !interp.IsTerminal() {
		t.Error("IsTerminal() = false after success")
	}

	want := []statekit.EventType{EventStart, EventSucceed}
	history := interp.Context().History
	if len(history) != len(want) || history[0] != want[0] || history[1] != want[1] {
		t.Errorf("History = %v, want %v", history, want)
	}
}

func TestInterpreter_SucceedRequiresFinishedAgent(t *testing.T) {
	t.Parallel()

	a := agent.New(mazetest.New("XXXX", "X_EX", "XSXX"))
	interp := newTestInterpreter(t, a, 10)
	_ = interp.Transition(agent.RunStatusRunning, nil)

	err := interp.Transition(agent.RunStatusSucceeded, nil)
	if !errors.Is(err, agent.ErrInvalidTransition) {
		t.Errorf("Transition(succeeded) error = %v, want ErrInvalidTransition", err)
	}
	if interp.Status() != agent.RunStatusRunning {
		t.Errorf("Status() = %s, want running", interp.Status())
	}
}

func TestInterpreter_Exhaust(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 3)
	_ = interp.Transition(agent.RunStatusRunning, nil)

	run := interp.Context().Run
	run.Attempts = 2
	if err := interp.Transition(agent.RunStatusExhausted, nil); !errors.Is(err, agent.ErrInvalidTransition) {
		t.Errorf("Transition(exhausted) early error = %v, want ErrInvalidTransition", err)
	}

	run.Attempts = 3
	if err := interp.Transition(agent.RunStatusExhausted, nil); err != nil {
		t.Fatalf("Transition(exhausted) error = %v", err)
	}
	if run.Status != agent.RunStatusExhausted {
		t.Errorf("Run.Status = %s, want exhausted", run.Status)
	}
}

func TestInterpreter_FailRecordsCause(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 10)
	_ = interp.Transition(agent.RunStatusRunning, nil)

	if err := interp.Transition(agent.RunStatusFailed, errors.New("store unavailable")); err != nil {
		t.Fatalf("Transition(failed) error = %v", err)
	}
	run := interp.Context().Run
	if run.Status != agent.RunStatusFailed || run.Error != "store unavailable" {
		t.Errorf("Run = %s %q, want failed with cause", run.Status, run.Error)
	}
}

func TestInterpreter_CancelBeforeStart(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 10)
	if err := interp.Transition(agent.RunStatusCancelled, nil); err != nil {
		t.Fatalf("Transition(cancelled) error = %v", err)
	}
	run := interp.Context().Run
	if run.Status != agent.RunStatusCancelled {
		t.Errorf("Run.Status = %s, want cancelled", run.Status)
	}
	if run.EndTime.IsZero() {
		t.Error("Run.EndTime is zero after cancel")
	}
}

func TestInterpreter_TerminalRejectsTransitions(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 10)
	_ = interp.Transition(agent.RunStatusCancelled, nil)

	if err := interp.Transition(agent.RunStatusRunning, nil); !errors.Is(err, agent.ErrRunTerminated) {
		t.Errorf("Transition() error = %v, want ErrRunTerminated", err)
	}
}

func TestInterpreter_InvalidTransition(t *testing.T) {
	t.Parallel()

	interp := newTestInterpreter(t, nil, 10)
	if err := interp.Transition(agent.RunStatusExhausted, nil); !errors.Is(err, agent.ErrInvalidTransition) {
		t.Errorf("Transition(exhausted) error = %v, want ErrInvalidTransition", err)
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to agent.RunStatus
		want     bool
	}{
		{agent.RunStatusPending, agent.RunStatusRunning, true},
		{agent.RunStatusPending, agent.RunStatusSucceeded, false},
		{agent.RunStatusRunning, agent.RunStatusSucceeded, true},
		{agent.RunStatusRunning, agent.RunStatusPending, false},
		{agent.RunStatusSucceeded, agent.RunStatusFailed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEventFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status agent.RunStatus
		want   statekit.EventType
	}{
		{agent.RunStatusRunning, EventStart},
		{agent.RunStatusSucceeded, EventSucceed},
		{agent.RunStatusExhausted, EventExhaust},
		{agent.RunStatusCancelled, EventCancel},
		{agent.RunStatusFailed, EventFail},
		{agent.RunStatus("custom"), "custom"},
	}
	for _, tt := range tests {
		if got := EventFor(tt.status); got != tt.want {
			t.Errorf("EventFor(%s) = %s, want %s", tt.status, got, tt.want)
		}
		if tt.status.IsValid() {
			if back := statusFromEventType(tt.want); back != tt.status {
				t.Errorf("statusFromEventType(%s) = %s, want %s", tt.want, back, tt.status)
			}
		}
	}
}
