package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thruflo/keysweep/internal/config"
	"github.com/thruflo/keysweep/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "keysweep",
	Short: "Sweep a numeric keyspace through a single page input field",
	Long: `Keysweep writes every value of a numeric range, in a shuffled order,
into one input field of a web page and optionally submits each value.

An operator drives the run from a terminal panel: enable auto-submit,
pause and resume, stop, or reset. Progress survives a reset for the
lifetime of the process.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("keysweep version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config named by --config and applies its log level
// to the default logger. The returned close function releases the log file.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logging.SetLevel(level)

	closeLog := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logging.SetOutput(f)
		closeLog = func() {
			logging.SetOutput(os.Stderr)
			f.Close()
		}
	}

	return cfg, closeLog, nil
}
