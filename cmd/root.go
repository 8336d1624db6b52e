package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cratesync/config"
	"cratesync/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cratesync",
	Short: "Convert Serato crate files to Rekordbox XML.",
	Long: `cratesync reads a Serato subcrate directory and exports a
Rekordbox-compatible XML document with folders, playlists, deduplicated
tracks and cue points.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
