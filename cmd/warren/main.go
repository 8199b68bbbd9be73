package main

import (
	"os"

	"github.com/warren-tools/warren/cli"
	"github.com/warren-tools/warren/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"warren",
		"Run parallel coding-agent sessions in isolated git worktrees",
	)

	// Add subcommands
	rootCmd.AddCommand(cmd.NewInitCmd())
	rootCmd.AddCommand(cmd.NewNewCmd())
	rootCmd.AddCommand(cmd.NewLsCmd())
	rootCmd.AddCommand(cmd.NewRmCmd())
	rootCmd.AddCommand(cmd.NewAttachCmd())
	rootCmd.AddCommand(cmd.NewRepairCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
