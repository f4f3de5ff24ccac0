package model

import "errors"

// Sentinel errors for domain input validation.
var (
	ErrMalformed      = errors.New("malformed input")
	ErrUnknownFeature = errors.New("unknown feature")
)
