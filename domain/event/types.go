package event

import (
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/navigation"
)

// Type classifies domain events.
type Type string

// Event types for a simulation run.
const (
	// Run lifecycle events
	TypeRunStarted  Type = "run.started"
	TypeRunFinished Type = "run.finished"

	// Planning events
	TypePlanInstalled Type = "plan.installed"

	// Movement events
	TypeAgentMoved   Type = "agent.moved"
	TypeAgentBlocked Type = "agent.blocked"

	// Food events
	TypeFoodCollected Type = "food.collected"
)

// Types returns every known event type.
func Types() []Type {
	return []Type{
		TypeRunStarted,
		TypePlanInstalled,
		TypeAgentMoved,
		TypeAgentBlocked,
		TypeFoodCollected,
		TypeRunFinished,
	}
}

// IsValid returns true if the type is recognized.
func (t Type) IsValid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Event payload structures

// RunStartedPayload contains data for run.started events.
type RunStartedPayload struct {
	MapName    string        `json:"map_name"`
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Entry      maze.Position `json:"entry"`
	Heading    maze.Heading  `json:"heading"`
	TargetFood int           `json:"target_food"`
	TotalFood  int           `json:"total_food"`
	MaxSteps   int           `json:"max_steps"`
}

// PlanInstalledPayload contains data for plan.installed events.
type PlanInstalledPayload struct {
	Target   navigation.Target `json:"target"`
	Path     []maze.Position   `json:"path"`
	Headings []maze.Heading    `json:"headings"`
}

// AgentMovedPayload contains data for agent.moved events.
type AgentMovedPayload struct {
	From    maze.Position `json:"from"`
	To      maze.Position `json:"to"`
	Heading maze.Heading  `json:"heading"`
	Source  agent.Source  `json:"source"`
	Steps   int           `json:"steps"`
}

// AgentBlockedPayload contains data for agent.blocked events.
type AgentBlockedPayload struct {
	At      maze.Position `json:"at"`
	Heading maze.Heading  `json:"heading"`
	Source  agent.Source  `json:"source"`
}

// FoodCollectedPayload contains data for food.collected events.
type FoodCollectedPayload struct {
	At        maze.Position `json:"at"`
	Collected int           `json:"collected"`
	Target    int           `json:"target"`
}

// RunFinishedPayload contains data for run.finished events.
type RunFinishedPayload struct {
	Status    agent.RunStatus `json:"status"`
	Attempts  int             `json:"attempts"`
	Steps     int             `json:"steps"`
	Collected int             `json:"collected"`
	TotalFood int             `json:"total_food"`
	Score     int             `json:"score"`
	Position  maze.Position   `json:"position"`
	Error     string          `json:"error,omitempty"`
	Duration  time.Duration   `json:"duration"`
}
