package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/mediameta/internal/config"
	"github.com/fpang/mediameta/internal/logging"
)

// Global flags
var (
	configFlag   string
	logLevelFlag string
)

// cfg is loaded once per invocation before any subcommand runs.
var cfg = &config.Config{}

var rootCmd = &cobra.Command{
	Use:   "mediameta",
	Short: "Read capture metadata from QuickTime and MP4 files",
	Long: `mediameta decodes the metadata atoms of QuickTime (.mov) and MP4 files:
GPS location, creation time, keywords, pixel size, rotation and the
compatible brands of the file type box. No external tools are needed.

Examples:
  mediameta inspect clip.mov
  mediameta inspect --json ~/Movies/*.mp4
  mediameta tree --depth 3 clip.mov
  mediameta scan -d ~/Pictures/trip --max-depth 2

Environment:
` + config.Usage(),
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "YAML config file (environment variables still override it)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(inspectCmd, treeCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if logLevelFlag != "" {
		loaded.Log.Level = logLevelFlag
	}
	cfg = loaded

	logging.InitWriter(cfg.Log, cmd.ErrOrStderr())
	log.Debug().
		Str("command", cmd.Name()).
		Str("config", configFlag).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")
	return nil
}
