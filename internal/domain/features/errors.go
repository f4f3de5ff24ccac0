package features

import "errors"

// Sentinel errors returned by Aggregate.
var (
	ErrEmptyGroup             = errors.New("no rows for star")
	ErrMixedStars             = errors.New("rows belong to more than one star")
	ErrInconsistentAttributes = errors.New("static attributes differ between rows of one star")
)
