// Package classifier scores feature vectors with a calibrated logistic
// regression and persists the fitted parameters as a YAML artifact.
//
// The probability of the positive class is
//
//	f = coef · ((x - mean) / scale) + intercept
//	p = 1 / (1 + exp(a*f + b))
//
// where (a, b) are the sigmoid calibration parameters.
package classifier

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Scaler standardizes each column.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Logistic holds the linear decision function.
type Logistic struct {
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`
	C         float64   `yaml:"c"`
}

// Calibration maps decision values to probabilities.
type Calibration struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

// Report summarizes a training run.
type Report struct {
	Samples   int     `yaml:"samples" json:"samples"`
	Dropped   int     `yaml:"dropped" json:"dropped"`
	Positives int     `yaml:"positives" json:"positives"`
	Negatives int     `yaml:"negatives" json:"negatives"`
	Holdout   int     `yaml:"holdout" json:"holdout"`
	Accuracy  float64 `yaml:"accuracy" json:"accuracy"`
	LogLoss   float64 `yaml:"log_loss" json:"log_loss"`
}

// Artifact is the persisted form of a model.
type Artifact struct {
	FeatureOrder []string    `yaml:"feature_order"`
	Classes      []int       `yaml:"classes"`
	Scaler       Scaler      `yaml:"scaler"`
	Logistic     Logistic    `yaml:"logistic"`
	Calibration  Calibration `yaml:"calibration"`
	Report       *Report     `yaml:"report,omitempty"`
}

// Model is a validated, immutable artifact ready for scoring.
type Model struct {
	art Artifact
}

// New validates an artifact. The feature order must match the fixed column order.
func New(a Artifact) (*Model, error) {
	if !model.SameOrder(a.FeatureOrder) {
		return nil, fmt.Errorf("%w: artifact has [%s]", ErrSchemaMismatch, strings.Join(a.FeatureOrder, ","))
	}
	n := len(a.FeatureOrder)
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n || len(a.Logistic.Coef) != n {
		return nil, fmt.Errorf("%w: parameter lengths do not match %d features", ErrInvalidArtifact, n)
	}
	if !slices.Equal(a.Classes, []int{0, 1}) {
		return nil, fmt.Errorf("%w: classes must be [0 1], got %v", ErrInvalidArtifact, a.Classes)
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: scale of %s is %v", ErrInvalidArtifact, a.FeatureOrder[i], s)
		}
	}
	return &Model{art: a.clone()}, nil
}

func (a Artifact) clone() Artifact {
	cp := a
	cp.FeatureOrder = slices.Clone(a.FeatureOrder)
	cp.Classes = slices.Clone(a.Classes)
	cp.Scaler.Mean = slices.Clone(a.Scaler.Mean)
	cp.Scaler.Scale = slices.Clone(a.Scaler.Scale)
	cp.Logistic.Coef = slices.Clone(a.Logistic.Coef)
	if a.Report != nil {
		r := *a.Report
		cp.Report = &r
	}
	return cp
}

// Decode reads a YAML artifact.
func Decode(r io.Reader) (*Model, error) {
	var a Artifact
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	return New(a)
}

// Load reads a YAML artifact from disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the artifact as YAML.
func (m *Model) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m.art); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// Save writes the artifact to path.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Artifact returns a copy of the persisted form.
func (m *Model) Artifact() Artifact { return m.art.clone() }

// FeatureOrder returns the column order the model expects.
func (m *Model) FeatureOrder() []string { return slices.Clone(m.art.FeatureOrder) }

// Classes returns the class labels in probability column order.
func (m *Model) Classes() []int { return slices.Clone(m.art.Classes) }

// Decision returns the uncalibrated linear decision value.
func (m *Model) Decision(x []float64) float64 {
	return decision(x, m.art.Scaler, m.art.Logistic)
}

// PredictProba returns per-class probabilities for each row, ordered as Classes.
func (m *Model) PredictProba(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, x := range rows {
		if len(x) != len(m.art.FeatureOrder) {
			return nil, fmt.Errorf("%w: row %d has %d values", ErrSchemaMismatch, i, len(x))
		}
		for j, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %s", ErrUndefinedFeature, i, m.art.FeatureOrder[j])
			}
		}
		p := m.art.Calibration.apply(m.Decision(x))
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

// PredictVector returns the probability that the star hosts a planet.
func (m *Model) PredictVector(fv *model.FeatureVector) (float64, error) {
	x, ok := fv.Floats()
	if !ok {
		return 0, fmt.Errorf("%w: star %s: %s", ErrUndefinedFeature, fv.StarID, strings.Join(fv.Undefined(), ","))
	}
	proba, err := m.PredictProba([][]float64{x})
	if err != nil {
		return 0, err
	}
	return proba[0][1], nil
}

func decision(x []float64, s Scaler, l Logistic) float64 {
	f := l.Intercept
	for j, v := range x {
		f += l.Coef[j] * (v - s.Mean[j]) / s.Scale[j]
	}
	return f
}

func (c Calibration) apply(f float64) float64 {
	return sigmoid(-(c.A*f + c.B))
}

// sigmoid avoids overflow for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
