package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/features"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrNoData         = errors.New("No data provided")
	ErrTooManyRows    = errors.New("too many rows")
	ErrModelMissing   = errors.New("no model loaded")
	ErrNotFound       = errors.New("not found")
	ErrMethodNotAllow = errors.New("method not allowed")
)

// KindError ties an operation to a sentinel kind and an optional cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind returns an error of the given kind caused by err.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// Wrap annotates err with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// statusFor maps domain errors onto HTTP statuses and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNoData), errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrMalformed), errors.Is(err, samples.ErrMalformed):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrTooManyRows):
		return http.StatusRequestEntityTooLarge, "too_many_rows"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrMethodNotAllow):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, pipeline.ErrMissingData),
		errors.Is(err, features.ErrInconsistentAttributes),
		errors.Is(err, classifier.ErrUndefinedFeature):
		return http.StatusUnprocessableEntity, "missing_data"
	case errors.Is(err, pipeline.ErrUpstream):
		return http.StatusBadGateway, "upstream_failure"
	case errors.Is(err, ErrModelMissing):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, pipeline.ErrSchemaMismatch), errors.Is(err, classifier.ErrSchemaMismatch):
		return http.StatusInternalServerError, "schema_mismatch"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
