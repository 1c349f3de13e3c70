package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardQuotaMet allows success only when the agent is finished.
// Guards receive the context by value, which is *Context here.
func guardQuotaMet(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.Agent != nil && ctx.Agent.Finished()
}

// guardBudgetSpent allows exhaustion once every step attempt is used.
func guardBudgetSpent(ctx *Context, _ statekit.Event) bool {
	if ctx == nil || ctx.Run == nil {
		return false
	}
	return ctx.MaxSteps > 0 && ctx.Run.Attempts >= ctx.MaxSteps
}
