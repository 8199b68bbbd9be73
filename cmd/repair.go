package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/pkg/sessions"
)

// NewRepairCmd creates the `repair` command
func NewRepairCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"repair",
		"Garbage collect stale sessions and fix registry damage",
	)
	cmd.Long = `Reconcile the registry against the process table and the worktree
list. Records whose agent is dead and whose worktree is gone are
pruned; a corrupt registry file is backed up and rebuilt empty. With
--restore, agents for dead sessions with surviving worktrees are
started again.`

	var restore bool
	cmd.Flags().BoolVar(&restore, "restore", false, "Re-spawn agents for dead sessions whose worktrees survive")

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

		report, err := manager.Repair(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}

		restored := 0
		if restore {
			restored, err = manager.RestoreAll(cmd.Context())
			if err != nil {
				return handler.Handle(err)
			}
		}

		if opts.JSONOutput {
			out := struct {
				*sessions.RepairReport
				Restored int `json:"restored"`
			}{report, restored}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if report.BackupPath != "" {
			fmt.Printf("Corrupt registry backed up to %s\n", report.BackupPath)
		}
		if len(report.Pruned) == 0 {
			fmt.Println(successStyle.Render("✓ Nothing to prune"))
		} else {
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Pruned %d stale session(s)", len(report.Pruned))))
			for _, name := range report.Pruned {
				fmt.Printf("  - %s\n", name)
			}
		}
		if restore {
			fmt.Printf("Restored %d agent(s)\n", restored)
		}
		return nil
	}

	return cmd
}
