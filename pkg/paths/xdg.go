// Package paths provides XDG-compliant path resolution for Warren.
//
// Resolution order:
// 1. WARREN_HOME (portable root) → $WARREN_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/warren
// 3. Platform defaults → ~/.config/warren, ~/.local/share/warren, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if warrenHome := os.Getenv("WARREN_HOME"); warrenHome != "" {
		return filepath.Join(warrenHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if warrenHome := os.Getenv("WARREN_HOME"); warrenHome != "" {
		return filepath.Join(warrenHome, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if warrenHome := os.Getenv("WARREN_HOME"); warrenHome != "" {
		return filepath.Join(warrenHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the Warren configuration directory.
// Used for the global warren.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "warren")
}

// DataDir returns the Warren data directory.
// Session worktrees live under here, per project.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "warren")
}

// StateDir returns the Warren state directory.
// Used for agent output logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "warren")
}

// ProjectsDir returns the directory that holds per-project session worktrees.
func ProjectsDir() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "projects")
}

// ProjectSessionsDir returns the directory that holds the session worktrees
// for a single project. Worktree paths are deterministic:
// <data>/projects/<project>/<session>.
func ProjectSessionsDir(project string) string {
	projects := ProjectsDir()
	if projects == "" {
		return ""
	}
	return filepath.Join(projects, project)
}

// AgentLogDir returns the directory for detached agent output logs.
func AgentLogDir(project string) string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs", project)
}

// EnsureDirs creates all Warren directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		ProjectsDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
