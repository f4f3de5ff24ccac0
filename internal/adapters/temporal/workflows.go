package temporal

import (
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BatchWorkflow extracts the requested stars chunk by chunk, at most
// MaxConcurrent chunks at a time. A failed chunk is counted and the batch
// carries on. Stars skipped because the catalog failed are re-submitted once,
// in chunks of their own, after the first pass.
func BatchWorkflow(ctx workflow.Context, input BatchInput) (BatchProgress, error) {
	progress := BatchProgress{}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	ids := input.StarIDs
	if len(ids) == 0 {
		var listOut ListStarsOutput
		if err := workflow.ExecuteActivity(ctx, ListStarsActivityName, ListStarsInput{}).Get(ctx, &listOut); err != nil {
			return progress, err
		}
		ids = listOut.StarIDs
	}

	chunks := chunk(ids, input.ChunkSize)
	progress.Total = len(ids)
	progress.Chunks = len(chunks)
	maxConcurrent := input.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	retry := runChunks(ctx, chunks, 0, input.Score, maxConcurrent, &progress)
	if len(retry) > 0 {
		workflow.GetLogger(ctx).Info("re-submitting stars after upstream failures", "stars", len(retry))
		progress.Skipped = dropStars(progress.Skipped, retry)
		progress.Retried = len(retry)
		again := chunk(retry, input.ChunkSize)
		progress.Chunks += len(again)
		runChunks(ctx, again, len(chunks), input.Score, maxConcurrent, &progress)
	}

	if input.OutputPath != "" {
		var out WriteMatrixOutput
		if err := workflow.ExecuteActivity(ctx, WriteMatrixActivityName, WriteMatrixInput{Path: input.OutputPath}).Get(ctx, &out); err != nil {
			return progress, err
		}
		progress.Output = input.OutputPath
	}
	return progress, nil
}

// runChunks executes chunks in windows of maxConcurrent, folding every result
// into progress. It returns the stars skipped for upstream reasons.
func runChunks(ctx workflow.Context, chunks [][]string, first int, score bool, maxConcurrent int, progress *BatchProgress) []string {
	log := workflow.GetLogger(ctx)
	var upstream []string
	for i := 0; i < len(chunks); i += maxConcurrent {
		end := min(i+maxConcurrent, len(chunks))
		futures := make([]workflow.Future, 0, end-i)
		for c := i; c < end; c++ {
			f := workflow.ExecuteActivity(ctx, ExtractChunkActivityName, ExtractChunkInput{
				Chunk:   first + c,
				StarIDs: chunks[c],
				Score:   score,
			})
			futures = append(futures, f)
		}
		for idx, f := range futures {
			var out ExtractChunkOutput
			if err := f.Get(ctx, &out); err != nil {
				log.Warn("chunk failed", "chunk", first+i+idx, "error", err)
				progress.Failed++
				continue
			}
			progress.Done++
			progress.Extracted += out.Extracted
			progress.Scored += out.Scored
			progress.Skipped = append(progress.Skipped, out.Skipped...)
			upstream = append(upstream, out.Upstream()...)
		}
	}
	return upstream
}

func dropStars(skipped []SkippedStar, ids []string) []SkippedStar {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := skipped[:0]
	for _, s := range skipped {
		if _, ok := drop[s.StarID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = defaultChunkSize
	}
	var out [][]string
	for i := 0; i < len(ids); i += size {
		out = append(out, ids[i:min(i+size, len(ids))])
	}
	return out
}
