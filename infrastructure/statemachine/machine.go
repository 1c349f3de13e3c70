// Package statemachine drives the run lifecycle with statekit.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
)

// Context carries run state through the state machine.
type Context struct {
	Run      *agent.Run
	Agent    *agent.Agent
	MaxSteps int

	// History lists the events that caused a transition, oldest first.
	History []statekit.EventType

	// err holds the last failure raised by an entry action.
	err error
}

// NewContext creates a new machine context.
func NewContext(run *agent.Run, a *agent.Agent, maxSteps int) *Context {
	return &Context{
		Run:      run,
		Agent:    a,
		MaxSteps: maxSteps,
	}
}

// Event types.
const (
	EventStart   statekit.EventType = "START"
	EventSucceed statekit.EventType = "SUCCEED"
	EventExhaust statekit.EventType = "EXHAUST"
	EventCancel  statekit.EventType = "CANCEL"
	EventFail    statekit.EventType = "FAIL"
)

const (
	statePending   = statekit.StateID(agent.RunStatusPending)
	stateRunning   = statekit.StateID(agent.RunStatusRunning)
	stateSucceeded = statekit.StateID(agent.RunStatusSucceeded)
	stateExhausted = statekit.StateID(agent.RunStatusExhausted)
	stateCancelled = statekit.StateID(agent.RunStatusCancelled)
	stateFailed    = statekit.StateID(agent.RunStatusFailed)
)

// transitions lists the statuses reachable from each non-final status.
var transitions = map[agent.RunStatus][]agent.RunStatus{
	agent.RunStatusPending: {agent.RunStatusRunning, agent.RunStatusCancelled, agent.RunStatusFailed},
	agent.RunStatusRunning: {agent.RunStatusSucceeded, agent.RunStatusExhausted, agent.RunStatusCancelled, agent.RunStatusFailed},
}

// NewRunMachine creates the run lifecycle statechart.
func NewRunMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("run").
		WithInitial(statePending).
		WithContext(&Context{}).
		WithAction("startRun", startRun).
		WithAction("finishRun", finishRun).
		WithGuard("quotaMet", guardQuotaMet).
		WithGuard("budgetSpent", guardBudgetSpent).
		State(statePending).
			On(EventStart).Target(stateRunning).Do("startRun").
			On(EventCancel).Target(stateCancelled).Do("finishRun").
			On(EventFail).Target(stateFailed).Do("finishRun").
			Done().
		State(stateRunning).
			On(EventSucceed).Target(stateSucceeded).Guard("quotaMet").Do("finishRun").
			On(EventExhaust).Target(stateExhausted).Guard("budgetSpent").Do("finishRun").
			On(EventCancel).Target(stateCancelled).Do("finishRun").
			On(EventFail).Target(stateFailed).Do("finishRun").
			Done().
		State(stateSucceeded).
			Final().
			Done().
		State(stateExhausted).
			Final().
			Done().
		State(stateCancelled).
			Final().
			Done().
		State(stateFailed).
			Final().
			Done().
		Build()
}

// EventFor returns the event that moves a run into status.
func EventFor(status agent.RunStatus) statekit.EventType {
	switch status {
	case agent.RunStatusRunning:
		return EventStart
	case agent.RunStatusSucceeded:
		return EventSucceed
	case agent.RunStatusExhausted:
		return EventExhaust
	case agent.RunStatusCancelled:
		return EventCancel
	case agent.RunStatusFailed:
		return EventFail
	default:
		return statekit.EventType(status)
	}
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to agent.RunStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
