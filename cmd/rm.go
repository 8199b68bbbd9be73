package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/pkg/sessions"
)

// NewRmCmd creates the `rm` command
func NewRmCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"rm <name>",
		"Remove a session: stop the agent, delete worktree and branch",
	)
	cmd.Long = `Stop the session's agent if it is running, remove its worktree and
branch, and drop it from the registry. A tree with uncommitted changes
is refused unless --force is given; --force discards the changes.`
	cmd.Args = cobra.ExactArgs(1)

	var force bool
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Discard uncommitted changes in the session worktree")

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

		name := args[0]
		if err := manager.Remove(cmd.Context(), name, force); err != nil {
			return handler.Handle(err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Session '%s' removed", name)))
		return nil
	}

	return cmd
}
