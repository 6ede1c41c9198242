package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/app"
	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "signalcore",
	Short: "signalcore - dual-mode market signal learning core",
	Long: `signalcore learns from news-driven feature snapshots with an online
classifier and trains versioned batch price models per ticker.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config and wires the application graph. Every subcommand
// starts here.
func bootstrap(ctx context.Context) (*app.App, *config.Config, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wiring application: %w", err)
	}
	return a, cfg, log, nil
}
