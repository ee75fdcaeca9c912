package main

import (
	"os"

	"github.com/specdeck/specdeck/cli"
	"github.com/specdeck/specdeck/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"specdeck",
		"Keep a live mirror of your spec-driven workflow directory",
	)

	rootCmd.AddCommand(cmd.NewWatchCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
