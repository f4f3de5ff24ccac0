package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/catalog"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/features"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// AttributeSource supplies stellar parameters for stars whose rows carry none.
type AttributeSource interface {
	Attributes(ctx context.Context, starID string) (model.StarAttributes, error)
}

// LabelSource supplies training labels for stars whose rows carry none.
type LabelSource interface {
	Label(ctx context.Context, starID string) (model.Label, error)
}

// Extractor turns the stored rows of one star into its feature vector.
type Extractor struct {
	source samples.Source
	attrs  AttributeSource
	labels LabelSource
}

// NewExtractor creates an extractor. attrs and labels may be nil.
func NewExtractor(src samples.Source, attrs AttributeSource, labels LabelSource) *Extractor {
	return &Extractor{source: src, attrs: attrs, labels: labels}
}

// Extract loads, detects and aggregates one star. Errors wrap ErrMissingData,
// ErrUpstream or features.ErrInconsistentAttributes.
func (e *Extractor) Extract(ctx context.Context, starID string) (model.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return model.FeatureVector{}, err
	}
	start := time.Now()

	recs, err := e.source.Records(ctx, starID)
	if errors.Is(err, samples.ErrNotFound) || (err == nil && len(recs) == 0) {
		return model.FeatureVector{}, fmt.Errorf("%w: star %s: no observations", ErrMissingData, starID)
	}
	if err != nil {
		return model.FeatureVector{}, fmt.Errorf("load star %s: %w", starID, err)
	}

	if allEmpty(recs) {
		if err := e.fillAttributes(ctx, starID, recs); err != nil {
			return model.FeatureVector{}, err
		}
	}
	if e.labels != nil && recs[0].Label == model.LabelUnknown {
		l, err := e.labels.Label(ctx, starID)
		if err != nil {
			return model.FeatureVector{}, classify(starID, "label", err)
		}
		for i := range recs {
			recs[i].Label = l
		}
	}

	fv, analysis, err := features.Records(recs)
	if err != nil {
		if errors.Is(err, features.ErrEmptyGroup) {
			return model.FeatureVector{}, fmt.Errorf("%w: star %s: %w", ErrMissingData, starID, err)
		}
		return model.FeatureVector{}, fmt.Errorf("star %s: %w", starID, err)
	}
	metrics.RecordDip(analysis.DipPoints)
	metrics.RecordStarProcessed(time.Since(start))
	return fv, nil
}

func (e *Extractor) fillAttributes(ctx context.Context, starID string, recs []model.Record) error {
	if e.attrs == nil {
		return fmt.Errorf("%w: star %s: no stellar attributes", ErrMissingData, starID)
	}
	a, err := e.attrs.Attributes(ctx, starID)
	if err != nil {
		return classify(starID, "attributes", err)
	}
	if a.Empty() {
		return fmt.Errorf("%w: star %s: catalog has no stellar attributes", ErrMissingData, starID)
	}
	for i := range recs {
		recs[i].Attributes = a
	}
	return nil
}

func classify(starID, what string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrUpstream):
		return fmt.Errorf("%w: star %s %s: %w", ErrUpstream, starID, what, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: star %s %s: %w", ErrMissingData, starID, what, err)
	}
}

func allEmpty(recs []model.Record) bool {
	for _, r := range recs {
		if !r.Attributes.Empty() {
			return false
		}
	}
	return true
}
