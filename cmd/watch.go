// Package cmd holds the specdeck subcommands.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/cli"
	"github.com/specdeck/specdeck/pkg/cache"
	"github.com/specdeck/specdeck/pkg/data"
	"github.com/specdeck/specdeck/pkg/events"
	"github.com/specdeck/specdeck/pkg/refresh"
	"github.com/specdeck/specdeck/pkg/watcher"
)

const stopTimeout = 5 * time.Second

// NewWatchCmd runs the synchronization engine in the foreground: initial
// scan, filesystem watching and the periodic refresh loop, until interrupted.
func NewWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the workflow directory and keep state synchronized",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			logger := cli.GetLogger(cmd)

			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}

			root, _ := cmd.Flags().GetString("root")
			if root == "" {
				root = cfg.Workflow.Dir
			}
			root, err = filepath.Abs(root)
			if err != nil {
				return err
			}

			var busOpts []events.Option
			if cfg.Sync.EventLog {
				busOpts = append(busOpts, events.WithEventLog())
			}
			bus := events.NewBus(busOpts...)

			c := cache.New(cfg.Sync.CacheTTL())
			manager := data.New(cfg, root, bus, c)
			defer manager.Close()

			if err := manager.Initialize(); err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}

			w, err := watcher.New(cfg, bus)
			if err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}
			if err := w.StartWatching(root); err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}
			defer w.StopWatching()

			svc := refresh.New(cfg, manager, bus)
			svc.Start()
			defer svc.Stop(stopTimeout)

			logger.WithField("root", root).Info("Watching workflow directory")
			fmt.Printf("Watching %s (%d entities). Press Ctrl-C to stop.\n", root, manager.EntityCount())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			logger.Info("Shutting down")
			return nil
		},
	}

	watchCmd.Flags().String("root", "", "Workflow directory to mirror (defaults to workflow.dir)")
	return watchCmd
}
