package git

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warren-tools/warren/command"
)

// Cleanliness classifies the working-tree state of a single worktree.
type Cleanliness string

const (
	// Clean means no staged, modified, or untracked files.
	Clean Cleanliness = "clean"
	// Dirty means the tree has uncommitted work of some kind.
	Dirty Cleanliness = "dirty"
	// Unknown means the tree could not be inspected, for example because
	// the directory disappeared. It is a state, not an error.
	Unknown Cleanliness = "unknown"
)

// StatusInfo contains detailed git status information for a worktree
type StatusInfo struct {
	// Branch is the current branch name
	Branch string `json:"branch"`

	// AheadCount is the number of commits ahead of the upstream branch
	AheadCount int `json:"ahead_count"`

	// BehindCount is the number of commits behind the upstream branch
	BehindCount int `json:"behind_count"`

	// ModifiedCount is the number of modified files
	ModifiedCount int `json:"modified_count"`

	// UntrackedCount is the number of untracked files
	UntrackedCount int `json:"untracked_count"`

	// StagedCount is the number of staged files
	StagedCount int `json:"staged_count"`

	// IsDirty indicates if there are any uncommitted changes
	IsDirty bool `json:"is_dirty"`

	// HasUpstream indicates if the branch has an upstream tracking branch
	HasUpstream bool `json:"has_upstream"`
}

// GetStatus returns detailed git status information for the worktree at path
func GetStatus(path string) (*StatusInfo, error) {
	cmdBuilder := command.NewSafeBuilder()
	status := &StatusInfo{}

	// git status --porcelain=v2 --branch answers everything in one call
	cmd, err := cmdBuilder.Build(context.Background(), "git", "status", "--porcelain=v2", "--branch")
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = path
	output, err := execCmd.Output()
	if err != nil {
		outputStr := string(output)
		if strings.Contains(outputStr, "not a git repository") {
			return nil, fmt.Errorf("not a git repository: %s", path)
		}
		return nil, fmt.Errorf("failed to get git status: %w, output: %s", err, outputStr)
	}

	for _, line := range strings.Split(string(output), "\n") {
		if line == "" {
			continue
		}

		// Header lines start with '#'
		if strings.HasPrefix(line, "# ") {
			parts := strings.Fields(line)
			if len(parts) < 3 {
				continue
			}
			switch parts[1] {
			case "branch.head":
				status.Branch = parts[2]
			case "branch.upstream":
				status.HasUpstream = true
			case "branch.ab":
				// format is +<ahead> -<behind>
				if len(parts) > 2 {
					aheadStr := strings.TrimPrefix(parts[2], "+")
					status.AheadCount, _ = strconv.Atoi(aheadStr)
				}
				if len(parts) > 3 {
					behindStr := strings.TrimPrefix(parts[3], "-")
					status.BehindCount, _ = strconv.Atoi(behindStr)
				}
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "?": // Untracked
			status.UntrackedCount++
		case "1", "2": // Changed entries (1 for normal, 2 for rename/copy)
			if len(parts) < 2 {
				continue
			}
			xy := parts[1]
			if len(xy) < 2 {
				continue
			}
			if xy[0] != '.' {
				status.StagedCount++
			}
			if xy[1] != '.' {
				status.ModifiedCount++
			}
		case "u", "U": // Unmerged
			status.StagedCount++
			status.ModifiedCount++
		}
	}

	status.IsDirty = status.ModifiedCount > 0 || status.UntrackedCount > 0 || status.StagedCount > 0

	return status, nil
}

// CheckCleanliness classifies the worktree at path. An inaccessible tree is
// Unknown, never an error: list output should degrade, not fail.
func CheckCleanliness(path string) Cleanliness {
	if _, err := os.Stat(path); err != nil {
		return Unknown
	}

	status, err := GetStatus(path)
	if err != nil {
		return Unknown
	}
	if status.IsDirty {
		return Dirty
	}
	return Clean
}
