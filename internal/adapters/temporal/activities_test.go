package temporal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/catalog"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

var sunLike = model.StarAttributes{
	Teff: model.Some(5778), Radius: model.Some(1), Mass: model.Some(1), Logg: model.Some(4.44), FeH: model.Some(0),
}

type constantModel struct{ p float64 }

func (c constantModel) PredictVector(*model.FeatureVector) (float64, error) { return c.p, nil }
func (c constantModel) Classes() []int                                     { return []int{0, 1} }

type failingCatalog struct{}

func (failingCatalog) Attributes(context.Context, string) (model.StarAttributes, error) {
	return model.StarAttributes{}, fmt.Errorf("%w: status 503", catalog.ErrUpstream)
}

func newActivities(t *testing.T) (*Activities, *samples.MemoryStore, *repository.MemoryStore) {
	t.Helper()
	_ = logger.Init(logger.WithWriter(&bytes.Buffer{}))
	src := samples.NewMemoryStore()
	for _, id := range []string{"757450", "10666592"} {
		for i, f := range []float64{1, 1, 0.95, 0.9, 0.95, 1, 1} {
			src.Put(model.Record{
				Observation: model.Observation{StarID: id, Time: float64(i), Flux: f, FluxErr: 0.01},
				Attributes:  sunLike,
				Label:       model.LabelUnknown,
			})
		}
	}
	store := repository.NewMemoryStore(context.Background())
	t.Cleanup(func() { _ = store.Close() })
	return &Activities{Source: src, Store: store, Workers: 2}, src, store
}

func TestListStarsActivity(t *testing.T) {
	a, _, _ := newActivities(t)
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.ListStarsActivity)

	val, err := env.ExecuteActivity(a.ListStarsActivity, ListStarsInput{})
	require.NoError(t, err)
	var out ListStarsOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, []string{"757450", "10666592"}, out.StarIDs)
}

func TestExtractChunkActivity(t *testing.T) {
	a, _, store := newActivities(t)
	a.Model = constantModel{p: 0.7}
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.ExtractChunkActivity)

	val, err := env.ExecuteActivity(a.ExtractChunkActivity, ExtractChunkInput{StarIDs: []string{"757450", "missing", "10666592"}, Score: true})
	require.NoError(t, err)
	var out ExtractChunkOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, 2, out.Extracted)
	require.Equal(t, 2, out.Scored)
	require.Len(t, out.Skipped, 1)
	require.Equal(t, "missing", out.Skipped[0].StarID)
	require.Equal(t, "missing_data", out.Skipped[0].Reason)

	top, err := store.TopN(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.InDelta(t, 0.7, top[0].Probability.Value, 1e-12)
}

func TestExtractChunkActivityWithoutModel(t *testing.T) {
	a, _, _ := newActivities(t)
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.ExtractChunkActivity)

	_, err := env.ExecuteActivity(a.ExtractChunkActivity, ExtractChunkInput{StarIDs: []string{"757450"}, Score: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), ErrNoModel.Error())
}

func TestExtractChunkActivityReportsUpstreamStars(t *testing.T) {
	a, src, store := newActivities(t)
	src.Put(model.Record{
		Observation: model.Observation{StarID: "3000001", Time: 0, Flux: 1, FluxErr: 0.01},
		Label:       model.LabelUnknown,
	})
	a.Attributes = failingCatalog{}
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.ExtractChunkActivity)

	val, err := env.ExecuteActivity(a.ExtractChunkActivity, ExtractChunkInput{StarIDs: []string{"757450", "3000001", "10666592"}})
	require.NoError(t, err)
	var out ExtractChunkOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, 2, out.Extracted)
	require.Len(t, out.Skipped, 1)
	require.Equal(t, "3000001", out.Skipped[0].StarID)
	require.Equal(t, "upstream", out.Skipped[0].Reason)
	require.Contains(t, out.Skipped[0].Error, "status 503")
	require.Equal(t, []string{"3000001"}, out.Upstream())

	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

// gatedLabels holds back the label of one star until release returns.
type gatedLabels struct {
	star    string
	release func()
}

func (g gatedLabels) Label(_ context.Context, starID string) (model.Label, error) {
	if starID == g.star {
		g.release()
	}
	return model.LabelNegative, nil
}

func TestExtractChunkActivityHeartbeatsPerStar(t *testing.T) {
	a, _, _ := newActivities(t)
	a.Workers = 1
	beats := make(chan int, 8)
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.SetOnActivityHeartbeatListener(func(_ *activity.Info, details converter.EncodedValues) {
		var n int
		if details.Get(&n) == nil {
			beats <- n
		}
	})
	env.RegisterActivity(a.ExtractChunkActivity)

	// The second star only proceeds once the first one has been heartbeated.
	beforeSecond := -1
	a.Labels = gatedLabels{star: "10666592", release: func() {
		select {
		case beforeSecond = <-beats:
		case <-time.After(5 * time.Second):
		}
	}}

	val, err := env.ExecuteActivity(a.ExtractChunkActivity, ExtractChunkInput{StarIDs: []string{"757450", "10666592"}})
	require.NoError(t, err)
	var out ExtractChunkOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, 2, out.Extracted)
	require.Equal(t, 1, beforeSecond)
}

func TestWriteMatrixActivity(t *testing.T) {
	a, _, store := newActivities(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, model.FeatureVector{StarID: "757450"}))
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a.WriteMatrixActivity)

	path := filepath.Join(t.TempDir(), "out", "features.csv")
	val, err := env.ExecuteActivity(a.WriteMatrixActivity, WriteMatrixInput{Path: path})
	require.NoError(t, err)
	var out WriteMatrixOutput
	require.NoError(t, val.Get(&out))
	require.Equal(t, 1, out.Rows)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	vectors, err := csvio.ReadMatrix(f)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Equal(t, "757450", vectors[0].StarID)
}
