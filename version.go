// Package mazeagent provides the version information for maze-agent.
package mazeagent

// Version is the current version of maze-agent.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
