package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/pkg/sessions"
)

// NewAttachCmd creates the `attach` command
func NewAttachCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"attach <name>",
		"Run the agent in the foreground inside a session worktree",
	)
	cmd.Long = `Start the configured agent attached to this terminal, working in the
session's worktree, and block until it exits. The session's last access
time is updated.`
	cmd.Args = cobra.ExactArgs(1)

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

		if err := manager.Attach(cmd.Context(), args[0]); err != nil {
			return handler.Handle(err)
		}
		return nil
	}

	return cmd
}
