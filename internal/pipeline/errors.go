package pipeline

import (
	"context"
	"errors"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/catalog"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/features"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// Sentinel kinds for pipeline errors.
var (
	ErrMissingData    = errors.New("star has no observations or attributes")
	ErrUpstream       = errors.New("attribute source unavailable")
	ErrSchemaMismatch = errors.New("feature columns do not match the expected order")
)

// Reason classifies a per-star error into a skip reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	case errors.Is(err, ErrUpstream), errors.Is(err, catalog.ErrUpstream):
		return metrics.ReasonUpstream
	case errors.Is(err, features.ErrInconsistentAttributes):
		return metrics.ReasonInconsistent
	case errors.Is(err, model.ErrMalformed), errors.Is(err, samples.ErrMalformed):
		return metrics.ReasonMalformed
	default:
		return metrics.ReasonMissingData
	}
}
