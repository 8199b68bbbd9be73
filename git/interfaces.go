package git

import "context"

// WorktreeProvider defines the interface for git worktree operations
type WorktreeProvider interface {
	List(ctx context.Context, repoDir string) ([]Worktree, error)
	Find(ctx context.Context, repoDir, wtPath string) (*Worktree, error)
	Create(ctx context.Context, repoDir, path, branch, base string) error
	Remove(ctx context.Context, repoDir string, wt *Worktree, force bool) error
	Prune(ctx context.Context, repoDir string) error
}
