package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warren-tools/warren/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Agent.Executable)
	assert.Equal(t, []string{"--dangerously-skip-permissions"}, cfg.Agent.UnattendedArgs)
	assert.Equal(t, "origin", cfg.Remote)
	assert.Empty(t, cfg.BranchPrefix)
	assert.Empty(t, cfg.BaseBranch)
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `version: "1"
agent:
  executable: my-agent
  args: ["--yolo"]
remote: upstream
base_branch: develop
branch_prefix: "sessions/"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "my-agent", cfg.Agent.Executable)
	assert.Equal(t, []string{"--yolo"}, cfg.Agent.Args)
	assert.Equal(t, "upstream", cfg.Remote)
	assert.Equal(t, "develop", cfg.BaseBranch)
	assert.Equal(t, "sessions/", cfg.BranchPrefix)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("WARREN_TEST_AGENT", "env-agent")
	dir := t.TempDir()
	content := `agent:
  executable: ${WARREN_TEST_AGENT}
remote: ${WARREN_TEST_REMOTE:-origin}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-agent", cfg.Agent.Executable)
	assert.Equal(t, "origin", cfg.Remote)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("agent: [unclosed"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "my-project", false},
		{"with digits", "proj42", false},
		{"empty", "", true},
		{"path separator", "a/b", true},
		{"backslash", `a\b`, true},
		{"space", "a b", true},
		{"shell metacharacter", "a;b", true},
		{"leading dot", ".hidden", true},
		{"leading dash", "-flag", true},
		{"too long", string(make([]byte, 101)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitProjectAndLoadProject(t *testing.T) {
	dir := t.TempDir()

	project, err := InitProject(dir, "widgets")
	require.NoError(t, err)
	assert.Equal(t, "widgets", project.Name)
	assert.False(t, project.CreatedAt.IsZero())

	loaded, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "widgets", loaded.Name)
}

func TestInitProjectTwiceFails(t *testing.T) {
	dir := t.TempDir()

	_, err := InitProject(dir, "widgets")
	require.NoError(t, err)

	_, err = InitProject(dir, "widgets")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlreadyInitialized, errors.GetCode(err))
}

func TestLoadProjectUninitialized(t *testing.T) {
	_, err := LoadProject(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProjectNotInitialized, errors.GetCode(err))
}
