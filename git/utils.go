package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/warren-tools/warren/command"
	"github.com/warren-tools/warren/errors"
)

// IsRepository checks if the given directory is inside a git repository.
func IsRepository(dir string) bool {
	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	return execCmd.Run() == nil
}

// GetGitRoot returns the root directory of the git repository containing dir.
func GetGitRoot(dir string) (string, error) {
	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	output, err := execCmd.Output()
	if err != nil {
		return "", errors.NotARepository(dir)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the branch checked out in dir. A detached HEAD
// resolves to the literal string "HEAD".
func CurrentBranch(dir string) (string, error) {
	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	output, err := execCmd.Output()
	if err != nil {
		return "", errors.CommandFailed("git rev-parse --abbrev-ref HEAD", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// DefaultBranch determines the repository's default branch. It prefers the
// named remote's advertised HEAD and falls back to probing for main, then
// master.
func DefaultBranch(dir, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}

	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "symbolic-ref", "refs/remotes/"+remote+"/HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	if output, err := execCmd.Output(); err == nil {
		ref := strings.TrimSpace(string(output))
		return strings.TrimPrefix(ref, "refs/remotes/"+remote+"/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		exists, err := BranchExists(dir, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}

	// No conventional default; whatever HEAD points at wins.
	return CurrentBranch(dir)
}

// RepoName derives a short repository name from the origin remote URL,
// falling back to the basename of the repository root.
func RepoName(dir string) (string, error) {
	gitRoot, err := GetGitRoot(dir)
	if err != nil {
		return "", err
	}

	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "config", "--get", "remote.origin.url")
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = gitRoot
	output, err := execCmd.Output()
	if err != nil {
		// No remote configured; use the directory name.
		return filepath.Base(gitRoot), nil
	}

	return extractRepoName(strings.TrimSpace(string(output))), nil
}

// extractRepoName extracts a repository name from a git URL.
func extractRepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// SSH URLs: git@host:user/repo
	if strings.HasPrefix(url, "git@") {
		parts := strings.SplitN(url, ":", 2)
		if len(parts) == 2 {
			url = parts[1]
		}
	}

	parts := strings.Split(url, "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return "unknown"
}

// HasRemote reports whether the named remote is configured.
func HasRemote(dir, remote string) bool {
	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "remote", "get-url", remote)
	if err != nil {
		return false
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	return execCmd.Run() == nil
}

// Fetch updates refs from the named remote. Failure means the remote is
// unreachable or misconfigured; it is reported to the caller, never retried.
func Fetch(ctx context.Context, dir, remote string) error {
	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(ctx, "git", "fetch", remote)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	if output, err := execCmd.CombinedOutput(); err != nil {
		return errors.RemoteUnavailable(remote, fmt.Errorf("%s", strings.TrimSpace(string(output))))
	}
	return nil
}

// ResolveRef resolves a git ref (branch name, tag, or commit) to its full
// commit hash.
func ResolveRef(dir, ref string) (string, error) {
	cmdBuilder := command.NewSafeBuilder()
	if err := cmdBuilder.Validate("gitRef", ref); err != nil {
		return "", errors.InvalidInput(fmt.Sprintf("invalid ref: %v", err))
	}
	cmd, err := cmdBuilder.Build(context.Background(), "git", "rev-parse", "--verify", ref)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	output, err := execCmd.Output()
	if err != nil {
		return "", errors.CommandFailed(fmt.Sprintf("git rev-parse --verify %s", ref), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadCommit returns the current HEAD commit hash for a repository.
func HeadCommit(dir string) (string, error) {
	return ResolveRef(dir, "HEAD")
}

// BranchExists reports whether a local branch with the given name exists.
func BranchExists(dir, branch string) (bool, error) {
	cmdBuilder := command.NewSafeBuilder()
	if err := cmdBuilder.Validate("gitRef", branch); err != nil {
		return false, errors.InvalidInput(fmt.Sprintf("invalid branch name: %v", err))
	}
	cmd, err := cmdBuilder.Build(context.Background(), "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		return false, fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	return execCmd.Run() == nil, nil
}

// DeleteBranch force-deletes a local branch. Deleting a branch that does not
// exist is not an error; the goal state is already achieved.
func DeleteBranch(dir, branch string) error {
	exists, err := BranchExists(dir, branch)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(context.Background(), "git", "branch", "-D", branch)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	if output, err := execCmd.CombinedOutput(); err != nil {
		return errors.CommandFailed(fmt.Sprintf("git branch -D %s", branch), fmt.Errorf("%s", strings.TrimSpace(string(output))))
	}
	return nil
}
