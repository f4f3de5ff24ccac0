// Package types contains the request and response shapes shared by the HTTP
// API, the load tool and the CLI.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/orbit"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/scoring"
)

// StarID accepts both JSON strings and numbers; KIC ids often arrive as integers.
type StarID string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StarID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StarID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("star_id must be a string or a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*s = StarID(strconv.FormatInt(i, 10))
		return nil
	}
	*s = StarID(n.String())
	return nil
}

// ObservationRow is one light-curve sample in a request. Attributes and label
// are optional; stars without attributes are looked up in the catalog.
type ObservationRow struct {
	StarID  StarID         `json:"star_id"`
	Time    float64        `json:"time"`
	Flux    float64        `json:"flux"`
	FluxErr float64        `json:"flux_err"`
	Teff    model.Optional `json:"teff"`
	Radius  model.Optional `json:"radius"`
	Mass    model.Optional `json:"mass"`
	Logg    model.Optional `json:"logg"`
	FeH     model.Optional `json:"feh"`
	Label   *int           `json:"label,omitempty"`
}

// Record converts the row into an ingest record.
func (r ObservationRow) Record() (model.Record, error) {
	rec := model.Record{
		Observation: model.Observation{
			StarID:  model.NormalizeStarID(string(r.StarID)),
			Time:    r.Time,
			Flux:    r.Flux,
			FluxErr: r.FluxErr,
		},
		Attributes: model.StarAttributes{Teff: r.Teff, Radius: r.Radius, Mass: r.Mass, Logg: r.Logg, FeH: r.FeH},
		Label:      model.LabelUnknown,
	}
	if r.Label != nil {
		l, err := model.ParseLabel(strconv.Itoa(*r.Label))
		if err != nil {
			return rec, err
		}
		rec.Label = l
	}
	return rec, rec.Observation.Validate()
}

// PredictRequest is the body of POST /predict and POST /features.
type PredictRequest struct {
	Data []ObservationRow `json:"data"`
}

// ConfidenceInterval bounds are percentages.
type ConfidenceInterval struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// StarPrediction is the scored result of one star. Probability is a fraction;
// the other figures are percentages rounded to two decimals.
type StarPrediction struct {
	StarID                string             `json:"star_id"`
	Probability           float64            `json:"probability"`
	ProbabilityPercentage float64            `json:"probability_percentage"`
	MarginOfError         float64            `json:"margin_of_error"`
	ConfidenceInterval    ConfidenceInterval `json:"confidence_interval"`
	AdditionalParams      *orbit.Params      `json:"additional_params"`
}

// NewStarPrediction converts a scored star. Orbital estimates are attached
// when fv carries what they need.
func NewStarPrediction(res scoring.Result, fv *model.FeatureVector) StarPrediction {
	p := StarPrediction{
		StarID:                res.StarID,
		Probability:           res.Probability,
		ProbabilityPercentage: scoring.Percent(res.Probability),
		MarginOfError:         scoring.Percent(res.Margin),
		ConfidenceInterval: ConfidenceInterval{
			LowerBound: scoring.Percent(res.Lower),
			UpperBound: scoring.Percent(res.Upper),
		},
	}
	if params, err := orbit.Estimate(fv); err == nil {
		p.AdditionalParams = params
	}
	return p
}

// PredictResponse describes the first star at the top level and every star
// in Predictions.
type PredictResponse struct {
	StarPrediction
	Predictions []StarPrediction `json:"predictions"`
	Message     string           `json:"message"`
}

// FeatureRow is one extracted feature vector keyed by column name.
type FeatureRow struct {
	StarID   string              `json:"star_id"`
	Features map[string]*float64 `json:"features"`
	Label    *int                `json:"label,omitempty"`
}

// NewFeatureRow converts a feature vector.
func NewFeatureRow(fv *model.FeatureVector) FeatureRow {
	row := FeatureRow{StarID: fv.StarID, Features: fv.Map()}
	if fv.Label != model.LabelUnknown {
		l := int(fv.Label)
		row.Label = &l
	}
	return row
}

// FeaturesResponse is the body returned by POST /features.
type FeaturesResponse struct {
	FeatureOrder []string     `json:"feature_order"`
	Features     []FeatureRow `json:"features"`
}

// Candidate is a ranked, scored star.
type Candidate struct {
	Rank        int     `json:"rank"`
	StarID      string  `json:"star_id"`
	Probability float64 `json:"probability"`
}
