package samples

import "errors"

// Sentinel errors for the sample store.
var (
	ErrNotFound  = errors.New("star not found")
	ErrMalformed = errors.New("malformed sample input")
)

// Drop reasons reported by the builder.
const (
	DropNonFinite   = "non_finite"
	DropNegativeErr = "negative_flux_err"
	DropEmptyID     = "empty_star_id"
	DropDuplicate   = "duplicate"
)
