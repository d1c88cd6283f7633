package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSchemaCommand creates a standard 'schema' command that prints an
// embedded JSON Schema document.
func NewSchemaCommand(schemaJSON []byte) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for kiln.yml",
		Long:  `This command outputs the JSON Schema that kiln validates configuration files against. Point your editor's YAML language server at it for completion and inline diagnostics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(string(schemaJSON))
			return nil
		},
	}
	// The --json flag is implied since that's all this command does.
	return cmd
}
