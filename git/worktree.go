package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warren-tools/warren/command"
	"github.com/warren-tools/warren/errors"
)

// WorktreeInfo contains the raw facts git reports about a worktree
type WorktreeInfo struct {
	Path   string
	Branch string
	Commit string
	Bare   bool
}

// Worktree is a WorktreeInfo annotated with derived state. IsPrimary,
// IsCurrent, and Cleanliness are recomputed from the filesystem and the
// calling environment on every List; none of them is ever persisted.
type Worktree struct {
	WorktreeInfo
	IsPrimary   bool
	IsCurrent   bool
	Cleanliness Cleanliness
}

// WorktreeManager manages git worktrees
type WorktreeManager struct {
	cmdBuilder *command.SafeBuilder
}

// Ensure it implements the interface
var _ WorktreeProvider = (*WorktreeManager)(nil)

// NewWorktreeManager creates a new worktree manager
func NewWorktreeManager() *WorktreeManager {
	return &WorktreeManager{
		cmdBuilder: command.NewSafeBuilder(),
	}
}

// List returns all worktrees of the repository at repoDir, annotated with
// primary/current flags and per-tree cleanliness.
func (m *WorktreeManager) List(ctx context.Context, repoDir string) ([]Worktree, error) {
	infos, err := m.listRaw(ctx, repoDir)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	} else if resolved, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = resolved
	}

	worktrees := make([]Worktree, 0, len(infos))
	for i, info := range infos {
		wt := Worktree{
			WorktreeInfo: info,
			// The primary tree is always the first porcelain entry.
			IsPrimary:   i == 0,
			Cleanliness: CheckCleanliness(info.Path),
		}
		if cwd != "" {
			if resolved, err := filepath.EvalSymlinks(info.Path); err == nil {
				wt.IsCurrent = cwd == resolved || strings.HasPrefix(cwd, resolved+string(filepath.Separator))
			}
		}
		worktrees = append(worktrees, wt)
	}

	return worktrees, nil
}

// Find returns the annotated worktree whose path matches wtPath, or nil.
func (m *WorktreeManager) Find(ctx context.Context, repoDir, wtPath string) (*Worktree, error) {
	worktrees, err := m.List(ctx, repoDir)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(wtPath)
	if err != nil {
		return nil, err
	}

	for i := range worktrees {
		if worktrees[i].Path == abs {
			return &worktrees[i], nil
		}
	}
	return nil, nil
}

// Create adds a new worktree at path with a fresh branch forked from base:
// git worktree add -b branch path base. Colliding branch or path names are
// reported as NameCollision.
func (m *WorktreeManager) Create(ctx context.Context, repoDir, path, branch, base string) error {
	if err := m.cmdBuilder.Validate("gitRef", branch); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid branch name: %v", err))
	}
	if base != "" {
		if err := m.cmdBuilder.Validate("gitRef", base); err != nil {
			return errors.InvalidInput(fmt.Sprintf("invalid base ref: %v", err))
		}
	}

	exists, err := BranchExists(repoDir, branch)
	if err != nil {
		return err
	}
	if exists {
		return errors.NameCollision(branch, "branch")
	}
	if _, err := os.Stat(path); err == nil {
		return errors.NameCollision(path, "path")
	}

	args := []string{"worktree", "add", "-b", branch, path}
	if base != "" {
		args = append(args, base)
	}

	cmd, err := m.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = repoDir

	if output, err := execCmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if strings.Contains(msg, "already exists") {
			return errors.NameCollision(branch, "branch")
		}
		return errors.CommandFailed("git worktree add", fmt.Errorf("%s", msg))
	}

	return nil
}

// Remove deletes a session worktree and its branch. It refuses the primary
// tree, the tree the caller is standing in, and a dirty tree unless force is
// set. Force also discards uncommitted work via git worktree remove --force.
func (m *WorktreeManager) Remove(ctx context.Context, repoDir string, wt *Worktree, force bool) error {
	if wt.IsPrimary {
		return errors.CannotRemovePrimary(wt.Path)
	}
	if wt.IsCurrent {
		return errors.CannotRemoveCurrent(wt.Path)
	}
	if wt.Cleanliness == Dirty && !force {
		return errors.UncommittedChanges(wt.Path)
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, wt.Path)

	cmd, err := m.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = repoDir

	if output, err := execCmd.CombinedOutput(); err != nil {
		return errors.CommandFailed("git worktree remove", fmt.Errorf("%s", strings.TrimSpace(string(output))))
	}

	if wt.Branch != "" {
		if err := DeleteBranch(repoDir, wt.Branch); err != nil {
			return err
		}
	}

	return nil
}

// Prune drops worktree bookkeeping for trees whose directories are gone.
func (m *WorktreeManager) Prune(ctx context.Context, repoDir string) error {
	cmd, err := m.cmdBuilder.Build(ctx, "git", "worktree", "prune")
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = repoDir
	if output, err := execCmd.CombinedOutput(); err != nil {
		return errors.CommandFailed("git worktree prune", fmt.Errorf("%s", strings.TrimSpace(string(output))))
	}
	return nil
}

// listRaw parses git worktree list --porcelain.
func (m *WorktreeManager) listRaw(ctx context.Context, repoDir string) ([]WorktreeInfo, error) {
	cmd, err := m.cmdBuilder.Build(ctx, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = repoDir

	output, err := execCmd.Output()
	if err != nil {
		return nil, errors.CommandFailed("git worktree list", err)
	}

	return parseWorktreeList(string(output)), nil
}

// parseWorktreeList parses git worktree list --porcelain output. Entries are
// blank-line separated blocks of "key value" lines.
func parseWorktreeList(output string) []WorktreeInfo {
	var worktrees []WorktreeInfo

	var current WorktreeInfo
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			if current.Path != "" {
				worktrees = append(worktrees, current)
				current = WorktreeInfo{}
			}
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		switch parts[0] {
		case "worktree":
			if len(parts) == 2 {
				current.Path = parts[1]
			}
		case "HEAD":
			if len(parts) == 2 {
				current.Commit = parts[1]
			}
		case "branch":
			if len(parts) == 2 {
				current.Branch = strings.TrimPrefix(parts[1], "refs/heads/")
			}
		case "bare":
			current.Bare = true
		}
	}

	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees
}
