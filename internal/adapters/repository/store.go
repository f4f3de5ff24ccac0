// Package repository persists per-star feature vectors and their latest scores.
package repository

import (
	"context"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Entry is a stored star. Probability is undefined until the star is scored.
type Entry struct {
	Rank        int
	Vector      model.FeatureVector
	Probability model.Optional
	UpdatedAt   time.Time
}

// Store provides read/write access to feature vectors.
type Store interface {
	// Put inserts or replaces the vector of fv.StarID. Replacing a vector
	// clears its score.
	Put(ctx context.Context, fv model.FeatureVector) error

	// Get returns the entry for a star. Returns ErrNotFound if the star is unknown.
	Get(ctx context.Context, starID string) (Entry, error)

	// List returns every vector in first-insertion order.
	List(ctx context.Context) ([]model.FeatureVector, error)

	// SetScore records the latest planet probability of a stored star.
	SetScore(ctx context.Context, starID string, probability float64) error

	// TopN returns the n scored stars with the highest probability,
	// ties broken by star id.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of stored stars.
	Count(ctx context.Context) int

	Close() error
}
