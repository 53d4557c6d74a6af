package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/limits"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a configuration file and revalidate on change",
	Long: `Watch the configuration file and reload limit policies whenever it
changes.

The watch command keeps a limits manager loaded from the configuration
and applies policy changes live, the way an embedding application would
with limits.Watch enabled. Identifiers whose policy is unchanged keep
their limiter state across reloads. Invalid edits are rejected and
logged; the previous policies stay active.

Runs until interrupted (SIGINT/SIGTERM).`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging, nil); err != nil {
		return cli.NewCommandError("watch", err)
	}

	manager, err := limits.NewManager(limits.Config{
		DefaultPolicy: cfg.Limits.Default,
		Policies:      cfg.Limits.Identifiers,
	})
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	watcher, err := config.NewWatcher(cfgFile, 0)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	fmt.Printf("Watching %s (ctrl-c to stop)\n", cfgFile)

	ctx := cli.SetupSignalHandler()
	return watcher.Watch(ctx, func() error {
		next, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
		if err := manager.Reload(next.Limits.Default, next.Limits.Identifiers); err != nil {
			return err
		}
		slog.Info("policies reloaded",
			"default", next.Limits.Default.Algorithm,
			"identifiers", len(next.Limits.Identifiers),
		)
		return nil
	})
}
