// Package temporal runs batch feature extraction as a durable Temporal
// workflow: the star list is split into chunks and every chunk is extracted,
// persisted and optionally scored by an activity.
package temporal

import "github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"

// Query names served by BatchWorkflow.
const QueryGetProgress = "GetProgress"

// Activity names as registered on the worker.
const (
	ListStarsActivityName    = "ListStarsActivity"
	ExtractChunkActivityName = "ExtractChunkActivity"
	WriteMatrixActivityName  = "WriteMatrixActivity"
)

const (
	defaultChunkSize     = 100
	defaultMaxConcurrent = 4
)

// BatchInput starts a batch. An empty StarIDs processes every ingested star.
type BatchInput struct {
	StarIDs       []string `json:"star_ids,omitempty"`
	ChunkSize     int      `json:"chunk_size,omitempty"`
	MaxConcurrent int      `json:"max_concurrent,omitempty"`
	// Score asks each chunk to score its vectors with the worker's model.
	Score bool `json:"score,omitempty"`
	// OutputPath, when set, receives the feature matrix of every stored star.
	OutputPath string `json:"output_path,omitempty"`
}

// BatchProgress is returned by the GetProgress query and as the workflow result.
type BatchProgress struct {
	Total     int           `json:"total"`
	Chunks    int           `json:"chunks"`
	Done      int           `json:"done"`
	Extracted int           `json:"extracted"`
	Scored    int           `json:"scored"`
	Failed    int           `json:"failed"`
	Retried   int           `json:"retried"`
	Skipped   []SkippedStar `json:"skipped,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// SkippedStar names a star left out and why.
type SkippedStar struct {
	StarID string `json:"star_id"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

type ListStarsInput struct{}

type ListStarsOutput struct {
	StarIDs []string `json:"star_ids"`
}

type ExtractChunkInput struct {
	Chunk   int      `json:"chunk"`
	StarIDs []string `json:"star_ids"`
	Score   bool     `json:"score"`
}

type ExtractChunkOutput struct {
	Extracted int           `json:"extracted"`
	Scored    int           `json:"scored"`
	Skipped   []SkippedStar `json:"skipped,omitempty"`
}

// Upstream returns the ids of the stars skipped because the catalog failed.
func (o ExtractChunkOutput) Upstream() []string {
	var ids []string
	for _, s := range o.Skipped {
		if s.Reason == metrics.ReasonUpstream {
			ids = append(ids, s.StarID)
		}
	}
	return ids
}

type WriteMatrixInput struct {
	Path string `json:"path"`
}

type WriteMatrixOutput struct {
	Rows int `json:"rows"`
}
