// Package config handles project initialization and tool configuration.
// Project identity lives in .warren/project.json; optional behavior tuning
// lives in warren.yml at the repository root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warren-tools/warren/errors"
	"github.com/warren-tools/warren/logging"
)

// ConfigFileName is the optional tool configuration file at the repo root.
const ConfigFileName = "warren.yml"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// AgentConfig describes the coding agent launched into session worktrees.
type AgentConfig struct {
	// Executable is resolved on PATH at spawn time.
	Executable string `yaml:"executable"`
	// Args are passed to every agent invocation.
	Args []string `yaml:"args"`
	// UnattendedArgs are appended only for detached background starts,
	// never for interactive attach. The default suits the claude agent,
	// which otherwise blocks on permission prompts nobody can answer.
	UnattendedArgs []string `yaml:"unattended_args"`
	// Env entries (KEY=VALUE) are appended to the agent's environment.
	Env []string `yaml:"env"`
}

// Config is the parsed warren.yml document.
type Config struct {
	Version string      `yaml:"version"`
	Agent   AgentConfig `yaml:"agent"`

	// Remote is fetched before forking a new session branch.
	Remote string `yaml:"remote"`

	// BaseBranch overrides default-branch auto-detection.
	BaseBranch string `yaml:"base_branch"`

	// BranchPrefix is prepended to generated session branch names.
	BranchPrefix string `yaml:"branch_prefix"`

	Logging *logging.Config `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no warren.yml exists.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Agent: AgentConfig{
			Executable:     "claude",
			UnattendedArgs: []string{"--dangerously-skip-permissions"},
		},
		Remote: "origin",
	}
}

// Load reads warren.yml from dir. A missing file yields the defaults; a
// present but unparseable file is an error, not silently ignored.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid %s: %v", ConfigFileName, err))
	}

	if cfg.Agent.Executable == "" {
		cfg.Agent.Executable = "claude"
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
