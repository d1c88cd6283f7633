package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// NewWatchCmd creates the `watch` command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream active-configuration changes",
		Long: `Stream active-configuration changes from the daemon as they happen.

The first event is a snapshot of the current per-root selections; every
later event names the root whose selection changed. The stream runs until
interrupted and requires a running daemon.

With --json, each event is printed as one JSON object per line, suitable
for piping into other tools.

Examples:
  # Watch all roots
  kiln watch

  # Watch a single root
  kiln watch --root ~/src/app

  # Machine-readable stream
  kiln watch --json
`,
		RunE: runWatchE,
	}

	cmd.Flags().StringP("root", "r", "", "Only show changes for this workspace root")

	return cmd
}

func runWatchE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	rootFilter, _ := cmd.Flags().GetString("root")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Ctrl+C ends the stream cleanly.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	events, err := client.StreamChanges(ctx)
	if err != nil {
		return handler.Handle(err)
	}

	for event := range events {
		if rootFilter != "" && event.Type == daemon.EventChange && event.Root != rootFilter {
			continue
		}

		if opts.JSONOutput {
			line, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to marshal stream event: %w", err)
			}
			fmt.Println(string(line))
			continue
		}

		printStreamEvent(event, rootFilter)
	}

	return nil
}

func printStreamEvent(event daemon.StreamEvent, rootFilter string) {
	t := theme.DefaultTheme
	stamp := t.Muted.Render(time.Now().Format("15:04:05"))

	switch event.Type {
	case daemon.EventSnapshot:
		roots := make([]string, 0, len(event.Active))
		for root := range event.Active {
			if rootFilter != "" && root != rootFilter {
				continue
			}
			roots = append(roots, root)
		}
		sort.Strings(roots)

		if len(roots) == 0 {
			fmt.Printf("%s watching (no active configurations)\n", stamp)
			return
		}
		fmt.Printf("%s watching, current selections:\n", stamp)
		for _, root := range roots {
			fmt.Printf("  %s %s %s\n",
				t.Accent.Render(root),
				theme.IconArrow,
				event.Active[root].String())
		}

	case daemon.EventChange:
		fmt.Printf("%s %s %s %s\n",
			stamp,
			t.Accent.Render(event.Root),
			theme.IconArrow,
			event.Config.String())
	}
}
