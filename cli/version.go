package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/version"
)

// SetVersionTemplate wires a command's --version flag to the build
// metadata stamped into the binary.
func SetVersionTemplate(cmd *cobra.Command, info version.Info) {
	cmd.Version = info.Version
	cmd.SetVersionTemplate(fmt.Sprintf(`{{.Name}} {{.Version}}
  Commit:    %s
  Branch:    %s
  Built:     %s
  Platform:  %s
`, info.Commit, info.Branch, info.BuildDate, info.Platform))
}
