package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
)

// TransitionPayload carries the target status and its cause.
type TransitionPayload struct {
	To    agent.RunStatus
	Cause error
}

// Interpreter wraps the statekit interpreter with run-specific checks.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the run state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the pending state.
func (i *Interpreter) Start() {
	i.interp.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Status returns the current run status.
func (i *Interpreter) Status() agent.RunStatus {
	return agent.RunStatus(i.interp.State().Value)
}

// Transition moves the run to status. cause is recorded on the run when
// the status is terminal and may be nil.
func (i *Interpreter) Transition(to agent.RunStatus, cause error) error {
	from := i.Status()
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s", agent.ErrRunTerminated, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s to %s", agent.ErrInvalidTransition, from, to)
	}

	i.ctx.err = nil
	i.interp.Send(statekit.Event{
		Type:    EventFor(to),
		Payload: TransitionPayload{To: to, Cause: cause},
	})

	if got := i.Status(); got != to {
		return fmt.Errorf("%w: %s to %s refused", agent.ErrInvalidTransition, from, to)
	}
	return i.ctx.err
}

// IsTerminal returns true if the interpreter is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches status.
func (i *Interpreter) Matches(status agent.RunStatus) bool {
	return i.interp.Matches(statekit.StateID(status))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
