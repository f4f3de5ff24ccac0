package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/config"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
)

// ExtractResult summarizes an extract run.
type ExtractResult struct {
	Stars   int                `json:"stars"`
	Vectors int                `json:"vectors"`
	Skipped []pipeline.Skipped `json:"skipped,omitempty"`
	Rows    *samples.Report    `json:"rows,omitempty"`
	Output  string             `json:"output"`
	Elapsed string             `json:"elapsed"`
}

type extractFlags struct {
	source  sourceFlags
	workers int
	catalog bool
	labels  bool
}

func (f *extractFlags) register(cmd *cobra.Command) {
	f.source.register(cmd)
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel stars (default worker_count)")
	cmd.Flags().BoolVar(&f.catalog, "catalog", false, "fill missing stellar parameters from the exoplanet archive")
}

// run extracts every star of the selected source.
func (f *extractFlags) run(cmd *cobra.Command, cfg *config.Config) (pipeline.Result, *samples.Report, error) {
	src, err := f.source.open(cfg)
	if err != nil {
		return pipeline.Result{}, nil, err
	}
	defer src.close()

	ctx := commandContext(cmd)
	ids, err := src.src.StarIDs(ctx)
	if err != nil {
		return pipeline.Result{}, nil, err
	}
	workers := f.workers
	if workers <= 0 {
		workers = cfg.WorkerCount
	}
	opts := []pipeline.Option{pipeline.WithWorkers(workers), pipeline.WithQueueSize(cfg.QueueSize)}
	if f.catalog || f.labels {
		client, closeCache, err := newCatalog(cfg)
		if err != nil {
			return pipeline.Result{}, nil, err
		}
		defer closeCache()
		if f.catalog {
			opts = append(opts, pipeline.WithAttributeSource(client))
		}
		if f.labels {
			opts = append(opts, pipeline.WithLabelSource(client))
		}
	}
	res, err := pipeline.Run(ctx, ids, src.src, opts...)
	return res, src.report, err
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		flags extractFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one feature vector per star into a CSV",
		Long: `Detects the transit dip of every star and aggregates it with the flux
statistics and stellar parameters into the fixed feature columns. Stars that
cannot be extracted are reported and left out of the output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				return fmtr.Fail(ExitCommandError, "E001", "--out is required", nil)
			}
			res, report, err := flags.run(cmd, cfg)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "extract", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "create output", err)
			}
			if err := csvio.WriteMatrix(f, res.Vectors); err != nil {
				f.Close()
				return fmtr.Fail(ExitCommandError, "E003", "write features", err)
			}
			if err := f.Close(); err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "write features", err)
			}

			summary := ExtractResult{
				Stars:   len(res.Vectors) + len(res.Skipped),
				Vectors: len(res.Vectors),
				Skipped: res.Skipped,
				Rows:    report,
				Output:  out,
				Elapsed: res.Elapsed.String(),
			}
			return fmtr.Success(summary, func(w io.Writer) {
				fmt.Fprintf(w, "wrote %d feature vectors to %s in %s\n", summary.Vectors, out, summary.Elapsed)
				for _, s := range res.Skipped {
					fmt.Fprintf(w, "skipped %s: %s\n", s.StarID, s.Reason)
				}
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.labels, "labels", false, "fill missing labels from the KOI dispositions")
	cmd.Flags().StringVarP(&out, "out", "o", "", "feature CSV to write")
	return cmd
}
