package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantlab/signalcore/internal/core"
)

var (
	trainMode      string
	trainRetention string
)

var trainCmd = &cobra.Command{
	Use:   "train [ticker]",
	Short: "Train a batch price model for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainMode, "mode", "fast", "Training mode: fast or robust")
	trainCmd.Flags().StringVar(&trainRetention, "retention", "", "Retention policy: none, window or all (default from config)")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer log.Sync()

	md, err := a.Service.Train(ctx, args[0], core.TrainingMode(trainMode), trainRetention)
	if err != nil {
		return err
	}

	fmt.Printf("Model trained: %s\n", md.ID)
	fmt.Printf("  Ticker:       %s (%s)\n", md.Ticker, md.Mode)
	fmt.Printf("  Range:        %s\n", md.Range.String())
	fmt.Printf("  Observations: %d\n", md.Observations)
	fmt.Printf("  R2:           %.4f\n", md.Metrics.R2)
	fmt.Printf("  RMSE:         %.4f\n", md.Metrics.RMSE)
	fmt.Printf("  MAE:          %.4f\n", md.Metrics.MAE)
	fmt.Printf("  Artifact:     %s\n", md.ArtifactPath)
	return nil
}
