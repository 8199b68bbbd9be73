package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/pkg/sessions"
)

// NewNewCmd creates the `new` command
func NewNewCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"new [name]",
		"Create a session: branch, worktree, and a detached agent",
	)
	cmd.Long = `Fork a new branch and worktree from the base branch and start the
configured agent in it, detached from this terminal. With no name, a
two-word session name is generated.`
	cmd.Args = cobra.MaximumNArgs(1)

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

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		view, err := manager.Create(cmd.Context(), name)
		if err != nil {
			return handler.Handle(err)
		}

		if opts.JSONOutput {
			data, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Session '%s' created", view.Name)))
		fmt.Printf("  Branch:   %s\n", view.Branch)
		fmt.Printf("  Worktree: %s\n", view.WorktreePath)
		fmt.Printf("  Agent:    pid %d\n", view.PID)
		fmt.Printf("\nAttach with 'warren attach %s'.\n", view.Name)
		return nil
	}

	return cmd
}
