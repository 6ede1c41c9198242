package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models, newest first",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer log.Sync()

	models, err := a.Service.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No models registered")
		return nil
	}

	for _, md := range models {
		fmt.Printf("%s  %-6s %-6s  R2=%.4f RMSE=%.4f  obs=%d  trained=%s\n",
			md.ID, md.Ticker, md.Mode, md.Metrics.R2, md.Metrics.RMSE,
			md.Observations, md.TrainedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
