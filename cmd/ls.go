package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/git"
	"github.com/warren-tools/warren/pkg/sessions"
	"github.com/warren-tools/warren/registry"
)

// Styles for the session listing
var (
	sessionHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginTop(1).
		MarginBottom(0)

	sessionNameStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("33")).
		Bold(true)

	sessionRunningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("34"))

	sessionDeadStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	sessionUnstartedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	sessionDirtyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("208"))

	sessionPathStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	sessionBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		MarginLeft(2)
)

// NewLsCmd creates the `ls` command
func NewLsCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"ls",
		"List sessions with agent liveness and worktree state",
	)
	cmd.Long = `Show every session of this project: its branch, worktree path,
whether its agent process is running, and whether the tree has
uncommitted work. The listing is a pure read; nothing is modified.`

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		cwd, err := os.Getwd()
		if err != nil {
			return handler.Handle(err)
		}

		manager, err := sessions.NewManager(cwd)
		if err != nil {
			return handler.Handle(err)
		}

		views, err := manager.List(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}

		if opts.JSONOutput {
			data, err := json.MarshalIndent(views, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(views) == 0 {
			fmt.Println("No sessions. Create one with 'warren new'.")
			return nil
		}

		fmt.Println(sessionHeaderStyle.Render(manager.Project().Name))

		lines := make([]string, 0, len(views))
		for _, view := range views {
			lines = append(lines, formatSessionLine(view))
		}
		fmt.Println(sessionBoxStyle.Render(strings.Join(lines, "\n")))

		return nil
	}

	return cmd
}

func formatSessionLine(view sessions.View) string {
	nameStr := sessionNameStyle.Render(view.Name)

	var statusStr string
	switch view.Status {
	case registry.Running:
		statusStr = sessionRunningStyle.Render(fmt.Sprintf("● running (pid %d)", view.PID))
	case registry.Dead:
		statusStr = sessionDeadStyle.Render("● dead")
	default:
		statusStr = sessionUnstartedStyle.Render("○ unstarted")
	}

	branchStr := view.Branch
	if branchStr == "" {
		branchStr = "(no branch)"
	}

	var treeStr string
	switch view.Cleanliness {
	case git.Dirty:
		treeStr = sessionDirtyStyle.Render("dirty")
	case git.Clean:
		treeStr = sessionRunningStyle.Render("clean")
	default:
		treeStr = sessionUnstartedStyle.Render("unknown")
	}

	pathStr := sessionPathStyle.Render(view.WorktreePath)

	return fmt.Sprintf("%-24s %-28s %-10s %-20s %s", nameStr, statusStr, treeStr, branchStr, pathStr)
}
