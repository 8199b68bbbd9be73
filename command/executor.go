package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances for the git subprocesses SafeBuilder
// issues. The indirection lets tests substitute command creation (a stub git
// on PATH, canned failures) without touching the call sites.
type Executor interface {
	// Command creates a new exec.Cmd for the given executable and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a context-aware exec.Cmd; cancelling the
	// context kills the subprocess.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production Executor backed by os/exec.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
