package classifier

import "errors"

// Sentinel errors for artifact handling, scoring and training.
var (
	ErrSchemaMismatch   = errors.New("feature order does not match the model")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrUndefinedFeature = errors.New("feature vector has undefined values")
	ErrNoTrainingData   = errors.New("no complete labelled feature vectors")
	ErrSingleClass      = errors.New("training data holds a single class")
	ErrNotConverged     = errors.New("optimizer found no finite optimum")
)
