package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warren-tools/warren/errors"
)

// WarrenDirName is the per-repository metadata directory.
const WarrenDirName = ".warren"

// ProjectFileName holds the immutable project identity inside WarrenDirName.
const ProjectFileName = "project.json"

// maxProjectNameLength bounds project names so they stay usable as
// directory components.
const maxProjectNameLength = 100

// Project is the identity document written once at init time.
type Project struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WarrenDir returns the metadata directory for a repository root.
func WarrenDir(repoRoot string) string {
	return filepath.Join(repoRoot, WarrenDirName)
}

// ValidateProjectName rejects names that would be hostile as directory
// names or shell arguments.
func ValidateProjectName(name string) error {
	if name == "" {
		return errors.NameRequired("project")
	}
	if len(name) > maxProjectNameLength {
		return errors.InvalidInput(fmt.Sprintf("project name exceeds %d characters", maxProjectNameLength))
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.InvalidInput("project name must not contain path separators")
	}
	if strings.ContainsAny(name, " \t\n$`\"'&|;<>(){}[]*?!~") {
		return errors.InvalidInput("project name contains unsupported characters")
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return errors.InvalidInput("project name must not start with '.' or '-'")
	}
	return nil
}

// InitProject creates .warren/ under repoRoot and writes the project
// identity. Re-initializing an initialized repository fails; identity is
// written once and never mutated afterwards.
func InitProject(repoRoot, name string) (*Project, error) {
	if err := ValidateProjectName(name); err != nil {
		return nil, err
	}

	warrenDir := WarrenDir(repoRoot)
	projectPath := filepath.Join(warrenDir, ProjectFileName)

	if _, err := os.Stat(projectPath); err == nil {
		return nil, errors.AlreadyInitialized(repoRoot)
	}

	if err := os.MkdirAll(warrenDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", WarrenDirName, err)
	}

	project := &Project{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	if err := os.WriteFile(projectPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", ProjectFileName, err)
	}

	return project, nil
}

// LoadProject reads the project identity for a repository root.
func LoadProject(repoRoot string) (*Project, error) {
	projectPath := filepath.Join(WarrenDir(repoRoot), ProjectFileName)

	data, err := os.ReadFile(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ProjectNotInitialized(repoRoot)
		}
		return nil, fmt.Errorf("read %s: %w", ProjectFileName, err)
	}

	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ProjectFileName, err)
	}

	return &project, nil
}
