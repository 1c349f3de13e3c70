package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
)

// startRun marks the run as running.
// Actions receive a pointer to the context, so **Context here.
func startRun(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	c := *ctx
	c.History = append(c.History, event.Type)
	if err := c.Run.Start(); err != nil {
		c.err = err
	}
}

// finishRun records the final counters and the terminal status.
func finishRun(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	c := *ctx
	c.History = append(c.History, event.Type)

	payload, _ := event.Payload.(TransitionPayload)
	status := payload.To
	if status == "" {
		status = statusFromEventType(event.Type)
	}

	if c.Agent != nil {
		c.Run.Record(c.Agent)
	}
	if c.Run.Status == agent.RunStatusPending {
		// Cancelled or failed before the first step.
		if err := c.Run.Start(); err != nil {
			c.err = err
			return
		}
	}
	if err := c.Run.Finish(status, payload.Cause); err != nil {
		c.err = err
	}
}

// statusFromEventType derives the target status from an event type.
func statusFromEventType(eventType statekit.EventType) agent.RunStatus {
	switch eventType {
	case EventStart:
		return agent.RunStatusRunning
	case EventSucceed:
		return agent.RunStatusSucceeded
	case EventExhaust:
		return agent.RunStatusExhausted
	case EventCancel:
		return agent.RunStatusCancelled
	case EventFail:
		return agent.RunStatusFailed
	default:
		return agent.RunStatus(eventType)
	}
}
