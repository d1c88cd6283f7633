package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/version"
)

// NewVersionCmd creates the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print kiln version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			opts := cli.GetOptions(cmd)
			if opts.JSONOutput {
				jsonData, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version to JSON: %w", err)
				}
				fmt.Println(string(jsonData))
				return nil
			}

			fmt.Println(info.String())
			return nil
		},
	}
}
