package errors

import (
	"fmt"
	"os/exec"
)

// NotARepository creates a precondition error for a directory outside any git repository
func NotARepository(dir string) *WarrenError {
	return New(ErrCodeNotARepository, fmt.Sprintf("'%s' is not inside a git repository", dir)).
		WithDetail("dir", dir).
		WithDetail("remediation", "run this command from inside a git repository")
}

// ProjectNotInitialized creates a precondition error for a repository without a warren project
func ProjectNotInitialized(dir string) *WarrenError {
	return New(ErrCodeProjectNotInitialized, "project is not initialized").
		WithDetail("dir", dir).
		WithDetail("remediation", "run 'warren init' in the repository root first")
}

// AlreadyInitialized creates an error for re-running init on an initialized project
func AlreadyInitialized(dir string) *WarrenError {
	return New(ErrCodeAlreadyInitialized, "project is already initialized").
		WithDetail("dir", dir)
}

// NameCollision creates a collision error for an existing session, branch, or path
func NameCollision(name, kind string) *WarrenError {
	return New(ErrCodeNameCollision, fmt.Sprintf("%s '%s' already exists", kind, name)).
		WithDetail("name", name).
		WithDetail("kind", kind).
		WithDetail("remediation", "pick a different session name or remove the existing one")
}

// SessionNotFound creates an error for an unknown session name
func SessionNotFound(name string) *WarrenError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", name)).
		WithDetail("name", name).
		WithDetail("remediation", "run 'warren ls' to see existing sessions")
}

// CannotRemovePrimary creates a protection error for the primary worktree
func CannotRemovePrimary(path string) *WarrenError {
	return New(ErrCodeCannotRemovePrimary, "refusing to remove the primary worktree").
		WithDetail("path", path).
		WithDetail("remediation", "only session worktrees can be removed")
}

// CannotRemoveCurrent creates a protection error for the caller's current worktree
func CannotRemoveCurrent(path string) *WarrenError {
	return New(ErrCodeCannotRemoveCurrent, "refusing to remove the worktree you are currently in").
		WithDetail("path", path).
		WithDetail("remediation", "cd out of the worktree and retry")
}

// UncommittedChanges creates a protection error for a dirty worktree
func UncommittedChanges(path string) *WarrenError {
	return New(ErrCodeUncommittedChanges, "worktree has uncommitted changes").
		WithDetail("path", path).
		WithDetail("remediation", "commit or stash the changes, or pass --force to discard them")
}

// RemoteUnavailable creates an external-tool error for a failed fetch
func RemoteUnavailable(remote string, err error) *WarrenError {
	return Wrap(err, ErrCodeRemoteUnavailable, fmt.Sprintf("could not fetch from remote '%s'", remote)).
		WithDetail("remote", remote).
		WithDetail("remediation", "check network connectivity and remote configuration, then retry")
}

// AgentNotAvailable creates an external-tool error for a missing agent executable
func AgentNotAvailable(executable string) *WarrenError {
	return New(ErrCodeAgentNotAvailable, fmt.Sprintf("agent executable '%s' not found in PATH", executable)).
		WithDetail("executable", executable).
		WithDetail("remediation", fmt.Sprintf("install '%s' and make sure it is on your PATH", executable))
}

// SpawnFailed creates an external-tool error for a failed process spawn
func SpawnFailed(executable string, err error) *WarrenError {
	return Wrap(err, ErrCodeSpawnFailed, fmt.Sprintf("failed to start '%s'", executable)).
		WithDetail("executable", executable)
}

// SignalFailed creates an external-tool error for a failed signal delivery
func SignalFailed(pid int, err error) *WarrenError {
	return Wrap(err, ErrCodeSignalFailed, fmt.Sprintf("failed to signal process %d", pid)).
		WithDetail("pid", pid)
}

// CorruptRegistry creates a consistency error for an unparseable registry document
func CorruptRegistry(path string, err error) *WarrenError {
	return Wrap(err, ErrCodeCorruptRegistry, fmt.Sprintf("session registry at %s is not valid JSON", path)).
		WithDetail("path", path).
		WithDetail("remediation", "run 'warren repair' to back up the corrupt file and rebuild the registry")
}

// SessionUnrecorded creates a consistency error for an agent that started
// but whose registry record could not be written. The PID is attached so the
// caller can still find the orphaned process.
func SessionUnrecorded(name string, pid int, err error) *WarrenError {
	return Wrap(err, ErrCodeSessionUnrecorded,
		fmt.Sprintf("session '%s' started (pid %d) but could not be recorded", name, pid)).
		WithDetail("name", name).
		WithDetail("pid", pid).
		WithDetail("remediation", "run 'warren repair', or stop the process manually")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *WarrenError {
	warrenErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		warrenErr = warrenErr.WithDetail("exitCode", exitErr.ExitCode())
		if len(exitErr.Stderr) > 0 {
			warrenErr = warrenErr.WithDetail("stderr", string(exitErr.Stderr))
		}
	}

	return warrenErr
}

// InvalidInput creates a validation error
func InvalidInput(reason string) *WarrenError {
	return New(ErrCodeInvalidInput, reason)
}

// NameRequired creates a precondition error for a missing required name
func NameRequired(what string) *WarrenError {
	return New(ErrCodeNameRequired, fmt.Sprintf("%s name is required", what))
}
