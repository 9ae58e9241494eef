package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/samplescope-cli/internal/config"
	"github.com/KaramelBytes/samplescope-cli/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "samplescope",
	Short: "SampleScope CLI: profile CSV/JSON data samples for marketplace listings",
	Long: `SampleScope profiles uploaded CSV or JSON data samples in a single pass and reports
column types, data quality alerts, contract recommendations, benchmark clusters and
fair value price bands. Run it on files, as an HTTP service, or against a drop folder.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.samplescope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: invalid config, using defaults: %v\n", err)
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded configuration or the built-in defaults.
func effectiveConfig() *cfgpkg.Global {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil || c.Validate() != nil {
			return cfgpkg.Defaults()
		}
		cfg = c
	}
	return cfg
}

func newLogger() (*zap.Logger, error) {
	c := effectiveConfig()
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(level, c.LogFormat)
}
