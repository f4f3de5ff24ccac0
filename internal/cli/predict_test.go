package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
)

func TestPredictScoresEveryStar(t *testing.T) {
	cfg := testConfig(t)
	m, err := classifier.New(constantArtifact())
	require.NoError(t, err)
	require.NoError(t, m.Save(cfg.ModelPath))
	opts := &RootOptions{Format: "json", Config: cfg}

	stdout, err := execute(t, NewPredictCommand(opts), "--in", writeRows(t, true))
	require.NoError(t, err)

	var res PredictResult
	decodeData(t, stdout, &res)
	ids := map[string]bool{}
	for _, p := range res.Predictions {
		ids[p.StarID] = true
		assert.InDelta(t, 0.5, p.Probability, 1e-9)
		assert.Equal(t, 50.0, p.ProbabilityPercentage)
	}
	for _, s := range res.Skipped {
		ids[s.StarID] = true
	}
	assert.Len(t, ids, 3)
	assert.NotEmpty(t, res.Skipped)
}

func TestPredictWithoutModelFails(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: testConfig(t)}
	_, err := execute(t, NewPredictCommand(opts), "--in", writeRows(t, false))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "load model")
}
