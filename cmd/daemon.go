package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/internal/daemon/pidfile"
	"github.com/kilntools/kiln/internal/daemon/server"
	"github.com/kilntools/kiln/logging"
	"github.com/kilntools/kiln/pkg/compdb"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/pkg/paths"
	"github.com/kilntools/kiln/pkg/process"
	"github.com/kilntools/kiln/pkg/registry"
	"github.com/kilntools/kiln/pkg/workspace"
	"github.com/kilntools/kiln/state"
	"github.com/kilntools/kiln/version"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the kiln daemon (kilnd)",
		Long:  "Serve active build-configuration state for all workspace roots over a unix socket.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start kilnd in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("kilnd")
			pidPath := paths.PidFilePath()

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to prepare kiln directories: %w", err)
			}

			// 1. Acquire lock
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Load configuration and discover workspace roots
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine working directory: %w", err)
			}
			cfg, err := config.LoadEffective(cwd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			sockPath := paths.SocketPath()
			if cfg.Daemon != nil && cfg.Daemon.SocketPath != "" {
				sockPath = cfg.Daemon.SocketPath
			}
			debounceMs := 100
			if cfg.Daemon != nil && cfg.Daemon.ConfigDebounceMs > 0 {
				debounceMs = cfg.Daemon.ConfigDebounceMs
			}

			provider := workspace.NewProvider(cfg, cwd, logger)
			source := config.NewSource(provider, logger)
			store := state.New(daemon.SnapshotDir(provider.DefaultRoot()))

			var merger registry.Merger
			mergeEndpoint := ""
			if cfg.Compdb != nil && cfg.Compdb.Endpoint != "" {
				mergeEndpoint = cfg.Compdb.Endpoint
				merger = compdb.NewHTTPMerger(cfg.Compdb.Endpoint, cfg.Compdb.OutputDir)
			}

			reg := registry.New(source, provider, store, merger, logger)

			// 3. Setup server
			srv := server.New(logger, reg, provider, cfg)
			srv.SetRunningConfig(&server.RunningConfig{
				SocketPath:       sockPath,
				ConfigWatch:      cfg.ConfigWatchEnabled(),
				ConfigDebounceMs: debounceMs,
				MergeEndpoint:    mergeEndpoint,
				Version:          version.GetInfo().Version,
				StartedAt:        time.Now(),
			})

			// 4. Handle signals
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				// Explicitly release pidfile before exit in signal handler
				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			// 5. Start registry and config watcher in background. Warming
			// first means the registry is past its ready wait before the
			// socket accepts requests.
			source.Warm()

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return reg.Start(groupCtx)
			})
			if cfg.ConfigWatchEnabled() {
				watcher, werr := config.NewWatcher(provider.Roots(), debounceMs, func(root string) {
					source.Invalidate(root)
					reg.RevalidateRoot(root)
				}, logger)
				if werr != nil {
					logger.WithError(werr).Warn("Config watching disabled: watcher setup failed")
				} else {
					group.Go(func() error {
						watcher.Start(groupCtx)
						return nil
					})
				}
			}

			// 6. Start server (blocking)
			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(sockPath); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			cancel()
			return group.Wait()
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)

			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if !running {
				fmt.Println("Stopped")
				os.Exit(1) // Return non-zero for stopped state (useful for scripts)
			}

			fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())

			// Ask the daemon what it is actually running with; a daemon
			// that holds the pidfile but does not answer is still reported
			// as running.
			client, cerr := daemon.NewRemoteClient(paths.SocketPath())
			if cerr != nil {
				return nil
			}
			defer client.Close()

			info, cerr := client.GetRunningConfig(cmd.Context())
			if cerr != nil || info == nil || info.Daemon == nil {
				return nil
			}
			fmt.Printf("Version: %s\nStarted: %s\n",
				info.Daemon.Version, info.Daemon.StartedAt.Local().Format(time.RFC1123))
			if info.Daemon.MergeEndpoint != "" {
				fmt.Printf("Merge endpoint: %s\n", info.Daemon.MergeEndpoint)
			}
			return nil
		},
	}
}
