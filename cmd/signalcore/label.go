package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var labelMax int

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Run one auto-labeling pass over aged snapshots",
	RunE:  runLabel,
}

func init() {
	labelCmd.Flags().IntVar(&labelMax, "max", 0, "Maximum articles to process (default from config)")

	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer log.Sync()

	res, err := a.Service.RunLabeling(ctx, labelMax)
	if err != nil {
		return err
	}

	fmt.Printf("Labeling run finished\n")
	fmt.Printf("  Processed: %d\n", res.Processed)
	fmt.Printf("  Labeled:   %d\n", res.Labeled)
	fmt.Printf("  Skipped:   %d\n", res.Skipped)
	fmt.Printf("  Errors:    %d\n", res.Errors)
	return nil
}
