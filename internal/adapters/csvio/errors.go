package csvio

import "errors"

// Sentinel kinds for feature matrix IO.
var (
	ErrMalformed      = errors.New("malformed feature matrix")
	ErrSchemaMismatch = errors.New("feature columns do not match the expected order")
)
