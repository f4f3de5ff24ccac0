package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/scoring"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// PredictResult lists the scored stars and the ones left out.
type PredictResult struct {
	Predictions []types.StarPrediction `json:"predictions"`
	Skipped     []pipeline.Skipped     `json:"skipped,omitempty"`
}

// NewPredictCommand creates the predict command.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		flags     extractFlags
		modelPath string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score stars with a trained model",
		Long: `Extracts the feature vector of every star and prints the probability that
it hosts a planet with a 95% interval. Interval figures are percentages.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}
			m, err := classifier.Load(modelPath)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "load model", err)
			}
			res, _, err := flags.run(cmd, cfg)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "extract", err)
			}

			scorer := scoring.NewClassifierScorer(m)
			out := PredictResult{Skipped: res.Skipped}
			for i := range res.Vectors {
				fv := &res.Vectors[i]
				r, err := scorer.Score(commandContext(cmd), scoring.Input{Vector: fv})
				if err != nil {
					reason := metrics.ReasonMissingData
					if !errors.Is(err, classifier.ErrUndefinedFeature) {
						reason = pipeline.Reason(err)
					}
					out.Skipped = append(out.Skipped, pipeline.Skipped{StarID: fv.StarID, Reason: reason, Err: err})
					continue
				}
				out.Predictions = append(out.Predictions, types.NewStarPrediction(r, fv))
			}

			if err := fmtr.Success(out, func(w io.Writer) {
				for _, p := range out.Predictions {
					fmt.Fprintf(w, "%-12s %6.2f%%  [%6.2f, %6.2f]\n", p.StarID, p.ProbabilityPercentage,
						p.ConfidenceInterval.LowerBound, p.ConfidenceInterval.UpperBound)
				}
				for _, s := range out.Skipped {
					fmt.Fprintf(w, "%-12s skipped: %s\n", s.StarID, s.Reason)
				}
			}); err != nil {
				return err
			}
			if len(out.Predictions) == 0 && len(out.Skipped) > 0 {
				return NewExitError(ExitFailure, "no star could be scored")
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "model artifact (default model_path)")
	return cmd
}
