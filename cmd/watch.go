package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cratesync/config"
	"cratesync/convert"
	"cratesync/logger"
	"cratesync/server"
)

var (
	watchCrateRoot  string
	watchOutput     string
	watchInterval   int
	watchStatusAddr string
	watchNative     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the crate tree and reconvert on changes",
	Long: `Watch the crate root and rewrite the Rekordbox XML export whenever a
crate file is added, removed or modified. With --status-addr a small HTTP
endpoint serves the latest conversion summary and streams updates over a
websocket.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if watchCrateRoot != "" {
			cfg.CrateRoot = watchCrateRoot
		}
		if watchOutput != "" {
			cfg.Output = watchOutput
		}
		if watchInterval > 0 {
			cfg.PollInterval = watchInterval
		}
		if watchStatusAddr != "" {
			cfg.StatusAddr = watchStatusAddr
		}

		converter := convert.New(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := convert.WatchOptions{
			Interval: time.Duration(cfg.PollInterval) * time.Second,
			Native:   watchNative,
		}

		if cfg.StatusAddr != "" {
			status := server.NewStatusServer(cfg.StatusAddr)
			status.Start()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := status.Shutdown(shutdownCtx); err != nil {
					logger.Warn("status server shutdown failed", logger.ErrorField(err))
				}
			}()
			opts.OnSummary = status.Publish
		}

		logger.Info("watching crate root",
			logger.String("crateRoot", cfg.CrateRoot),
			logger.Int("intervalSeconds", cfg.PollInterval),
			logger.Bool("native", watchNative))

		if err := converter.Watch(ctx, opts); err != nil {
			logger.Fatal("watch failed", logger.ErrorField(err))
		}
		logger.Info("stopped by user")
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchCrateRoot, "crate-root", "", "Directory containing .crate files (default: CRATE_ROOT or ~/Music/_Serato_/Subcrates)")
	watchCmd.Flags().StringVar(&watchOutput, "output", "", "Destination Rekordbox XML file (default: OUTPUT_PATH or ~/Music/_Serato_/rekordbox-export.xml)")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Polling interval in seconds (default: POLL_INTERVAL or 30)")
	watchCmd.Flags().StringVar(&watchStatusAddr, "status-addr", "", "Listen address for the status endpoint, e.g. 127.0.0.1:8923")
	watchCmd.Flags().BoolVar(&watchNative, "native", false, "Use native filesystem notifications instead of polling")
	rootCmd.AddCommand(watchCmd)
}
