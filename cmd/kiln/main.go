package main

import (
	"os"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/cmd"
	"github.com/kilntools/kiln/schema"
	"github.com/kilntools/kiln/starship"
	"github.com/kilntools/kiln/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"kiln",
		"Per-workspace build-configuration registry",
	)
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	// Add subcommands
	rootCmd.AddCommand(cmd.NewVersionCmd())
	rootCmd.AddCommand(cmd.NewPathsCmd())
	rootCmd.AddCommand(cmd.NewRootsCmd())
	rootCmd.AddCommand(cmd.NewConfigsCmd())
	rootCmd.AddCommand(cmd.NewActiveCmd())
	rootCmd.AddCommand(cmd.NewUseCmd())
	rootCmd.AddCommand(cmd.NewWatchCmd())
	rootCmd.AddCommand(cmd.NewMergedCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(starship.NewStarshipCmd("kiln"))
	rootCmd.AddCommand(cli.NewSchemaCommand(schema.Embedded()))

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
