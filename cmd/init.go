package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/config"
	"github.com/warren-tools/warren/errors"
	"github.com/warren-tools/warren/git"
	"github.com/warren-tools/warren/util/sanitize"
)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("34"))

// NewInitCmd creates the `init` command
func NewInitCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"init [name]",
		"Initialize this repository as a warren project",
	)
	cmd.Long = `Create the .warren directory and record the project identity.
The project name defaults to the repository name.`
	cmd.Args = cobra.MaximumNArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		cwd, err := os.Getwd()
		if err != nil {
			return handler.Handle(err)
		}

		if !git.IsRepository(cwd) {
			return handler.Handle(errors.NotARepository(cwd))
		}

		repoRoot, err := git.GetGitRoot(cwd)
		if err != nil {
			return handler.Handle(err)
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		} else {
			repoName, err := git.RepoName(repoRoot)
			if err != nil {
				return handler.Handle(err)
			}
			name = sanitize.ForProjectName(repoName)
		}

		project, err := config.InitProject(repoRoot, name)
		if err != nil {
			return handler.Handle(err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Initialized project '%s'", project.Name)))
		fmt.Printf("  Registry: %s\n", config.WarrenDir(repoRoot))
		return nil
	}

	return cmd
}
