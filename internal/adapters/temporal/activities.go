package temporal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/scoring"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// ErrNoModel is returned when a chunk asks for scores and the worker has no model.
var ErrNoModel = errors.New("worker has no model loaded")

// Activities holds the worker-side dependencies.
type Activities struct {
	Source     samples.Source
	Store      repository.Store
	Attributes pipeline.AttributeSource
	Labels     pipeline.LabelSource
	Model      scoring.Predictor
	Workers    int
}

// ListStarsActivity lists every ingested star.
func (a *Activities) ListStarsActivity(ctx context.Context, _ ListStarsInput) (ListStarsOutput, error) {
	ids, err := a.Source.StarIDs(ctx)
	if err != nil {
		return ListStarsOutput{}, fmt.Errorf("list stars: %w", err)
	}
	return ListStarsOutput{StarIDs: ids}, nil
}

// ExtractChunkActivity extracts one chunk into the store and scores it when asked.
// Stars that fail extraction are reported in the output; the workflow re-submits
// the upstream ones. A failing store fails the activity so Temporal retries the
// chunk. The activity heartbeats once per finished star.
func (a *Activities) ExtractChunkActivity(ctx context.Context, in ExtractChunkInput) (ExtractChunkOutput, error) {
	if in.Score && a.Model == nil {
		return ExtractChunkOutput{}, sdktemporal.NewNonRetryableApplicationError(ErrNoModel.Error(), "NoModel", ErrNoModel)
	}
	log := logger.Get().Named("batch").With(logger.Int("chunk", in.Chunk))

	opts := []pipeline.Option{
		pipeline.WithWorkers(a.Workers),
		pipeline.WithStore(a.Store),
		pipeline.WithProgress(func(done, _ int) { activity.RecordHeartbeat(ctx, done) }),
	}
	if a.Attributes != nil {
		opts = append(opts, pipeline.WithAttributeSource(a.Attributes))
	}
	if a.Labels != nil {
		opts = append(opts, pipeline.WithLabelSource(a.Labels))
	}
	res, err := pipeline.Run(ctx, in.StarIDs, a.Source, opts...)
	if err != nil {
		return ExtractChunkOutput{}, err
	}

	out := ExtractChunkOutput{Extracted: len(res.Vectors)}
	for _, s := range res.Skipped {
		sk := SkippedStar{StarID: s.StarID, Reason: s.Reason}
		if s.Err != nil {
			sk.Error = s.Err.Error()
		}
		out.Skipped = append(out.Skipped, sk)
	}

	if in.Score {
		scorer := scoring.NewClassifierScorer(a.Model)
		for i := range res.Vectors {
			fv := &res.Vectors[i]
			r, err := scorer.Score(ctx, scoring.Input{Vector: fv})
			if err != nil {
				log.Debug(ctx, "star not scored", logger.String("starID", fv.StarID), logger.Error(err))
				continue
			}
			if err := a.Store.SetScore(ctx, fv.StarID, r.Probability); err != nil {
				return ExtractChunkOutput{}, fmt.Errorf("store score: %w", err)
			}
			out.Scored++
		}
	}
	log.Info(ctx, "chunk extracted",
		logger.Int("stars", len(in.StarIDs)),
		logger.Int("extracted", out.Extracted),
		logger.Int("scored", out.Scored),
		logger.Int("skipped", len(out.Skipped)),
		logger.Int("upstream", len(out.Upstream())),
	)
	return out, nil
}

// WriteMatrixActivity writes every stored vector as a feature CSV.
func (a *Activities) WriteMatrixActivity(ctx context.Context, in WriteMatrixInput) (WriteMatrixOutput, error) {
	vectors, err := a.Store.List(ctx)
	if err != nil {
		return WriteMatrixOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(in.Path), 0o755); err != nil {
		return WriteMatrixOutput{}, err
	}
	tmp := in.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return WriteMatrixOutput{}, err
	}
	if err := csvio.WriteMatrix(f, vectors); err != nil {
		f.Close()
		return WriteMatrixOutput{}, err
	}
	if err := f.Close(); err != nil {
		return WriteMatrixOutput{}, err
	}
	if err := os.Rename(tmp, in.Path); err != nil {
		return WriteMatrixOutput{}, err
	}
	return WriteMatrixOutput{Rows: len(vectors)}, nil
}
