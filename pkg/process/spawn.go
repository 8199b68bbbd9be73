package process

import (
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/warren-tools/warren/errors"
)

// SpawnOptions describes an agent process to launch.
type SpawnOptions struct {
	// Executable is resolved on PATH; spawning fails fast if it is missing.
	Executable string
	Args       []string
	Dir        string
	// LogPath receives combined stdout/stderr of a detached agent.
	// Empty means the output is discarded.
	LogPath string
	Env     []string
}

// ResolveExecutable checks that the agent executable can be found on PATH.
// A missing agent is reported, not retried; the user has to install it.
func ResolveExecutable(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.AgentNotAvailable(name)
	}
	return path, nil
}

// SpawnDetached starts the agent in its own session, decoupled from the
// calling process and its controlling terminal, and returns the child PID.
// The child deliberately survives the CLI invocation exiting; there is no
// parent-child lifetime coupling.
func SpawnDetached(opts SpawnOptions) (int, error) {
	path, err := ResolveExecutable(opts.Executable)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(path, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}

	// New session: the agent must not die with the CLI's terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil

	if opts.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogPath), 0755); err != nil {
			return 0, errors.SpawnFailed(opts.Executable, err)
		}
		logFile, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, errors.SpawnFailed(opts.Executable, err)
		}
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, errors.SpawnFailed(opts.Executable, err)
	}

	pid := cmd.Process.Pid

	// Release the child so the runtime does not expect a Wait. The OS
	// reparents it once this invocation exits.
	if err := cmd.Process.Release(); err != nil {
		return pid, errors.SpawnFailed(opts.Executable, err)
	}

	return pid, nil
}

// Terminate sends a graceful termination signal to pid. A process that no
// longer exists is success, not failure: the goal state ("not running") is
// already achieved, which makes stop idempotent.
func Terminate(pid int) error {
	if pid <= 0 {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	err = process.Signal(syscall.SIGTERM)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, os.ErrProcessDone) || stderrors.Is(err, syscall.ESRCH) {
		return nil
	}
	return errors.SignalFailed(pid, err)
}

// RunForeground runs the agent attached to the caller's terminal and blocks
// until it exits. This is the attach mode: a different execution mode from
// SpawnDetached, and the two are not interchangeable.
func RunForeground(opts SpawnOptions) error {
	path, err := ResolveExecutable(opts.Executable)
	if err != nil {
		return err
	}

	cmd := exec.Command(path, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// The agent exiting non-zero is the user's business, not a spawn
		// failure; only report errors that prevented the run itself.
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return nil
		}
		return errors.SpawnFailed(opts.Executable, err)
	}
	return nil
}
