package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("star not found")
	ErrInvalidLimit = errors.New("invalid top-n limit")
	ErrInvalidStar  = errors.New("feature vector has no star id")
)
