package catalog

import "errors"

// Sentinel errors returned by the catalog client.
var (
	ErrUpstream      = errors.New("catalog upstream failure")
	ErrNotFound      = errors.New("star not in catalog")
	ErrInvalidStarID = errors.New("star id is not a KIC number")
)
