package cli

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

func writeLabeledFeatures(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	vectors := make([]model.FeatureVector, n)
	for i := range vectors {
		fv := model.FeatureVector{StarID: "s" + string(rune('a'+i%26)) + string(rune('a'+i/26)), Label: model.LabelNegative}
		for f := range fv.Values {
			fv.Values[f] = model.Some(rng.NormFloat64())
		}
		depth := rng.NormFloat64() * 0.002
		if i%2 == 0 {
			fv.Label = model.LabelPositive
			depth += 0.01
		}
		fv.Set(model.DepthMean, model.Some(depth))
		vectors[i] = fv
	}
	// one incomplete and one unlabeled row are dropped
	vectors = append(vectors,
		model.FeatureVector{StarID: "incomplete", Label: model.LabelPositive},
		model.FeatureVector{StarID: "unlabeled", Label: model.LabelUnknown},
	)
	path := filepath.Join(t.TempDir(), "features.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, csvio.WriteMatrix(f, vectors))
	require.NoError(t, f.Close())
	return path
}

func TestTrainWritesLoadableModel(t *testing.T) {
	in := writeLabeledFeatures(t, 80)
	out := filepath.Join(t.TempDir(), "model.yaml")
	opts := &RootOptions{Format: "json", Config: testConfig(t)}

	stdout, err := execute(t, NewTrainCommand(opts), "--in", in, "--out", out, "--iterations", "500")
	require.NoError(t, err)

	var res TrainResult
	decodeData(t, stdout, &res)
	assert.Equal(t, out, res.Model)
	assert.Equal(t, 80, res.Samples)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 40, res.Positives)

	m, err := classifier.Load(out)
	require.NoError(t, err)
	assert.Equal(t, model.FeatureNames(), m.FeatureOrder())
}

func TestTrainSingleClassFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	fv := model.FeatureVector{StarID: "757450", Label: model.LabelPositive}
	for f := range fv.Values {
		fv.Values[f] = model.Some(1)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, csvio.WriteMatrix(f, []model.FeatureVector{fv}))
	require.NoError(t, f.Close())

	opts := &RootOptions{Format: "text", Config: testConfig(t)}
	_, err = execute(t, NewTrainCommand(opts), "--in", path, "--out", filepath.Join(t.TempDir(), "m.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, classifier.ErrSingleClass)
}
