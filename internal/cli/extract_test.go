package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

func TestExtractWritesFeatureCSV(t *testing.T) {
	rows := writeRows(t, true)
	out := filepath.Join(t.TempDir(), "features.csv")
	opts := &RootOptions{Format: "json", Config: testConfig(t)}

	stdout, err := execute(t, NewExtractCommand(opts), "--in", rows, "--out", out)
	require.NoError(t, err)

	var res ExtractResult
	decodeData(t, stdout, &res)
	assert.Equal(t, 3, res.Stars)
	assert.Equal(t, 2, res.Vectors)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "3000001", res.Skipped[0].StarID)
	require.NotNil(t, res.Rows)
	assert.Equal(t, 21, res.Rows.Accepted)

	vectors := readFeatures(t, out)
	require.Len(t, vectors, 2)
	assert.Equal(t, "757450", vectors[0].StarID)
	assert.Equal(t, "KIC 10666592", vectors[1].StarID)
	assert.Equal(t, model.LabelPositive, vectors[0].Label)
	depth, ok := vectors[0].Get(model.DepthMean).Get()
	require.True(t, ok)
	assert.Greater(t, depth, 0.0)
}

func TestExtractFromIngestedDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "samples.sqlite")
	out := filepath.Join(dir, "features.csv")
	opts := &RootOptions{Format: "text", Config: testConfig(t)}

	stdout, err := execute(t, NewIngestCommand(opts), "--in", writeRows(t, false), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported 14 rows of 2 stars")

	stdout, err = execute(t, NewExtractCommand(opts), "--db", db, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 2 feature vectors")
	assert.Len(t, readFeatures(t, out), 2)
}

func TestExtractRequiresOneSource(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: testConfig(t)}
	out := filepath.Join(t.TempDir(), "features.csv")

	_, err := execute(t, NewExtractCommand(opts), "--out", out)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, errInputFlags)

	_, err = execute(t, NewExtractCommand(opts), "--in", "a.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out is required")
}
