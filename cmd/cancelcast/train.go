package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/staysense/cancelcast/internal/config"
	"github.com/staysense/cancelcast/internal/pipeline"
)

func newTrainCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Run the full pipeline: ingest, preprocess, train, evaluate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			summary, err := pipeline.New(cfg).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s\n", summary.Train.Run.ID)
			fmt.Fprintf(out, "model: %s\n", summary.Train.ModelPath)
			fmt.Fprintf(out, "best cv %s: %.4f\n", summary.Train.Run.Scoring, summary.Train.CVScore)
			fmt.Fprintf(out, "test accuracy: %.4f  precision: %.4f  recall: %.4f  f1: %.4f\n",
				summary.Train.Report.Accuracy,
				summary.Train.Report.Precision,
				summary.Train.Report.Recall,
				summary.Train.Report.F1)
			return nil
		},
	}
}
