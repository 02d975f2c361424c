// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamisoel/gait-analyzer/internal/config"
	"github.com/kamisoel/gait-analyzer/internal/log"
)

var (
	cfgFile  string
	logLevel string
	debug    bool
	cfg      *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gait-analyzer",
	Short: "Markerless gait analysis from monocular video",
	Long: `gait-analyzer - markerless gait analysis from monocular video

Estimates a 3D pose sequence from walking footage, derives knee flexion
angles, gait cycles and stride statistics, and serves interactive figures
over HTTP.`,
	Version: "0.1.0",
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/gait-analyzer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging and console output")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.Default()
	}

	// Override config with flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Console: cfg.Debug})
}
