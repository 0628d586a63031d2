// Package exec provides an interface for command execution.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunStream executes a command and invokes onLine for every line of
	// combined output as it is produced. Returns the command error.
	RunStream(ctx context.Context, workDir string, onLine func(string), name string, args ...string) error

	// LookPath reports whether the named binary is available in PATH.
	LookPath(name string) bool
}
