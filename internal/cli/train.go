package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
)

// TrainResult summarizes a training run.
type TrainResult struct {
	classifier.Report
	Model string `json:"model"`
}

// NewTrainCommand creates the train command.
func NewTrainCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		in, out    string
		c, holdout float64
		iterations int
		seed       int64
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the planet-host classifier on a labeled feature CSV",
		Long: `Fits standard scaling, L2 logistic regression and Platt calibration on the
labeled rows of a feature CSV. Rows with undefined features or without a label
are dropped. A seeded holdout split is scored and stored in the artifact.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			if in == "" || out == "" {
				return fmtr.Fail(ExitCommandError, "E001", "--in and --out are required", nil)
			}
			f, err := os.Open(in)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "open features", err)
			}
			vectors, err := csvio.ReadMatrix(f)
			f.Close()
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "read features", err)
			}

			m, err := classifier.Train(vectors,
				classifier.WithC(c),
				classifier.WithHoldout(holdout),
				classifier.WithIterations(iterations),
				classifier.WithSeed(seed),
			)
			if err != nil {
				return fmtr.Fail(ExitFailure, "E004", "train", err)
			}
			if err := m.Save(out); err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "save model", err)
			}

			res := TrainResult{Model: out}
			if rep := m.Artifact().Report; rep != nil {
				res.Report = *rep
			}
			return fmtr.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "trained on %d stars (%d positive, %d negative, %d dropped)\n",
					res.Samples, res.Positives, res.Negatives, res.Dropped)
				if res.Holdout > 0 {
					fmt.Fprintf(w, "holdout %d: accuracy %.3f, log loss %.4f\n", res.Holdout, res.Accuracy, res.LogLoss)
				}
				fmt.Fprintf(w, "model written to %s\n", out)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "labeled feature CSV")
	cmd.Flags().StringVarP(&out, "out", "o", "model.yaml", "model artifact to write")
	cmd.Flags().Float64Var(&c, "c", classifier.DefaultC, "inverse L2 regularization strength")
	cmd.Flags().Float64Var(&holdout, "holdout", 0.2, "fraction of stars held out for the report")
	cmd.Flags().IntVar(&iterations, "iterations", 3000, "maximum L-BFGS iterations")
	cmd.Flags().Int64Var(&seed, "seed", 42, "split seed")
	return cmd
}
