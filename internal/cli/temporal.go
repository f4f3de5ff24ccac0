package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/temporal"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		db      string
		dsn     string
		useCat  bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a Temporal worker for batch extraction",
		Long: `Polls the batch task queue and runs extraction chunks against the ingested
SQLite observations. Vectors go to the Postgres feature store when a DSN is
configured; the model at model_path, if present, scores them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			if db == "" {
				db = cfg.SamplesDB
			}
			if dsn == "" {
				dsn = cfg.FeaturesDSN
			}
			if db == "" {
				return fmtr.Fail(ExitCommandError, "E001", "--db or samples_db is required", nil)
			}
			if workers <= 0 {
				workers = cfg.WorkerCount
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logger.Get().Named("worker")

			src, err := samples.OpenSQLite(db)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "open samples", err)
			}
			defer src.Close()

			var store repository.Store
			if dsn != "" {
				pg, err := repository.OpenPostgres(ctx, dsn)
				if err != nil {
					return fmtr.Fail(ExitCommandError, "E003", "open feature store", err)
				}
				store = pg
			} else {
				log.Warn(ctx, "no features_dsn set, vectors are kept in memory for this worker only")
				store = repository.NewMemoryStore(ctx)
			}
			defer store.Close()

			acts := &temporal.Activities{Source: src, Store: store, Workers: workers}
			if m, err := classifier.Load(cfg.ModelPath); err == nil {
				acts.Model = m
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmtr.Fail(ExitCommandError, "E002", "load model", err)
			}
			if useCat {
				archive, closeCache, err := newCatalog(cfg)
				if err != nil {
					return fmtr.Fail(ExitCommandError, "E003", "open catalog cache", err)
				}
				defer closeCache()
				acts.Attributes = archive
				acts.Labels = archive
			}

			c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E005", "dial temporal", err)
			}
			defer c.Close()

			w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
			temporal.Register(w, acts)
			log.Info(ctx, "exoscan worker listening",
				logger.String("address", cfg.TemporalAddress),
				logger.String("taskQueue", cfg.TemporalTaskQueue),
				logger.Bool("model", acts.Model != nil),
				logger.Bool("catalog", useCat),
			)
			if err := w.Start(); err != nil {
				return fmtr.Fail(ExitCommandError, "E005", "worker", err)
			}
			<-ctx.Done()
			w.Stop()
			log.Info(context.WithoutCancel(ctx), "exoscan worker stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "SQLite samples database (default samples_db)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres feature store DSN (default features_dsn)")
	cmd.Flags().BoolVar(&useCat, "catalog", false, "fill missing stellar parameters and labels from the exoplanet archive")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel stars per chunk (default worker_count)")
	return cmd
}

// BatchResult reports a started, and possibly finished, batch.
type BatchResult struct {
	WorkflowID string                  `json:"workflow_id"`
	RunID      string                  `json:"run_id"`
	Progress   *temporal.BatchProgress `json:"progress,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		in   temporal.BatchInput
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Start a batch extraction workflow",
		Long: `Starts BatchWorkflow on the configured Temporal task queue. Without --ids
every ingested star is processed. With --wait the command blocks until the
workflow finishes and prints its progress.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E005", "dial temporal", err)
			}
			defer c.Close()
			return runBatch(commandContext(cmd), fmtr, c, cfg.TemporalTaskQueue, in, wait)
		},
	}
	cmd.Flags().StringSliceVar(&in.StarIDs, "ids", nil, "star ids to process (default all ingested)")
	cmd.Flags().IntVar(&in.ChunkSize, "chunk-size", 100, "stars per activity")
	cmd.Flags().IntVar(&in.MaxConcurrent, "concurrency", 4, "chunks in flight")
	cmd.Flags().BoolVar(&in.Score, "score", false, "score vectors with the worker's model")
	cmd.Flags().StringVar(&in.OutputPath, "out", "", "feature CSV written by the worker when the batch ends")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the workflow completes")
	return cmd
}

func runBatch(ctx context.Context, fmtr *OutputFormatter, c client.Client, taskQueue string, in temporal.BatchInput, wait bool) error {
	run, err := temporal.StartBatch(ctx, c, taskQueue, in)
	if err != nil {
		return fmtr.Fail(ExitCommandError, "E005", "start workflow", err)
	}
	res := BatchResult{WorkflowID: run.GetID(), RunID: run.GetRunID()}
	if wait {
		var p temporal.BatchProgress
		if err := run.Get(ctx, &p); err != nil {
			return fmtr.Fail(ExitFailure, "E006", "workflow "+res.WorkflowID, err)
		}
		res.Progress = &p
	}
	return fmtr.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "started %s (run %s)\n", res.WorkflowID, res.RunID)
		if p := res.Progress; p != nil {
			fmt.Fprintf(w, "%d stars in %d chunks: %d extracted, %d scored, %d skipped, %d chunks failed\n",
				p.Total, p.Chunks, p.Extracted, p.Scored, len(p.Skipped), p.Failed)
			if p.Retried > 0 {
				fmt.Fprintf(w, "%d stars re-submitted after catalog failures\n", p.Retried)
			}
			if p.Output != "" {
				fmt.Fprintf(w, "features written to %s\n", p.Output)
			}
		}
	})
}
