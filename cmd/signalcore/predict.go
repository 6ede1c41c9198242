package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantlab/signalcore/internal/core"
)

var predictMode string

var predictCmd = &cobra.Command{
	Use:   "predict [ticker]",
	Short: "Predict the next close with the latest batch model",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictMode, "mode", "fast", "Training mode: fast or robust")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer log.Sync()

	pred, err := a.Service.PredictBatch(ctx, args[0], core.TrainingMode(predictMode))
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, model %s)\n", pred.Ticker, pred.Mode, pred.ModelID)
	fmt.Printf("  Current close:   %.2f\n", pred.CurrentClose)
	fmt.Printf("  Predicted close: %.2f\n", pred.PredictedNextClose)
	fmt.Printf("  Expected change: %+.2f%%\n", pred.PredictedChangePct)
	return nil
}
