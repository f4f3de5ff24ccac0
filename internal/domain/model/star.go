// Package model contains the domain types shared by the detector, the
// aggregator, the classifier and the adapters.
package model

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Observation is one light-curve sample. Observations are never mutated after ingest.
type Observation struct {
	StarID  string  `json:"star_id"`
	Time    float64 `json:"time"`
	Flux    float64 `json:"flux"`
	FluxErr float64 `json:"flux_err"`
}

// Validate rejects samples the detector cannot reason about.
func (o Observation) Validate() error {
	switch {
	case strings.TrimSpace(o.StarID) == "":
		return fmt.Errorf("%w: empty star_id", ErrMalformed)
	case !finite(o.Time), !finite(o.Flux), !finite(o.FluxErr):
		return fmt.Errorf("%w: non-finite value for star %s", ErrMalformed, o.StarID)
	case o.FluxErr < 0:
		return fmt.Errorf("%w: negative flux_err for star %s", ErrMalformed, o.StarID)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Label is the binary class of a star.
type Label int8

// Label values. LabelUnknown marks stars scored at inference time.
const (
	LabelUnknown  Label = -1
	LabelNegative Label = 0
	LabelPositive Label = 1
)

// ParseLabel accepts 0 and 1; empty input is LabelUnknown.
func ParseLabel(s string) (Label, error) {
	switch strings.TrimSpace(s) {
	case "":
		return LabelUnknown, nil
	case "0", "0.0":
		return LabelNegative, nil
	case "1", "1.0":
		return LabelPositive, nil
	}
	return LabelUnknown, fmt.Errorf("%w: label %q is not 0 or 1", ErrMalformed, s)
}

// LabelFromDisposition maps an archive disposition to a label.
func LabelFromDisposition(d string) (Label, bool) {
	switch strings.ToUpper(strings.TrimSpace(d)) {
	case "CONFIRMED", "CANDIDATE":
		return LabelPositive, true
	case "FALSE POSITIVE":
		return LabelNegative, true
	}
	return LabelUnknown, false
}

// String renders the label for tabular output.
func (l Label) String() string {
	if l == LabelUnknown {
		return ""
	}
	return fmt.Sprintf("%d", l)
}

// StarAttributes are the static stellar parameters of one star.
type StarAttributes struct {
	Teff   Optional `json:"teff"`
	Radius Optional `json:"radius"`
	Mass   Optional `json:"mass"`
	Logg   Optional `json:"logg"`
	FeH    Optional `json:"feh"`
}

// Equal reports whether two attribute sets are identical.
func (a StarAttributes) Equal(b StarAttributes) bool {
	return a.Teff.Equal(b.Teff) && a.Radius.Equal(b.Radius) && a.Mass.Equal(b.Mass) &&
		a.Logg.Equal(b.Logg) && a.FeH.Equal(b.FeH)
}

// Empty reports whether no attribute is defined.
func (a StarAttributes) Empty() bool {
	return !a.Teff.Valid && !a.Radius.Valid && !a.Mass.Valid && !a.Logg.Valid && !a.FeH.Valid
}

// Star groups the observations of one star with its attributes and label.
type Star struct {
	ID           string
	Observations []Observation
	Attributes   StarAttributes
	Label        Label
}

// TransitScalars describe the single dip found in a light curve.
type TransitScalars struct {
	Depth    Optional `json:"depth"`
	Duration Optional `json:"duration"`
	Ingress  Optional `json:"ingress"`
	Egress   Optional `json:"egress"`
	Symmetry Optional `json:"symmetry"`
}

// Row is an observation carrying its star's transit scalars and attributes.
type Row struct {
	Observation
	Scalars    TransitScalars
	Attributes StarAttributes
	Label      Label
}

// Broadcast copies the star-level values onto every observation.
func Broadcast(obs []Observation, scalars TransitScalars, attrs StarAttributes, label Label) []Row {
	rows := make([]Row, len(obs))
	for i, o := range obs {
		rows[i] = Row{Observation: o, Scalars: scalars, Attributes: attrs, Label: label}
	}
	return rows
}

// Record is one ingested row: an observation with the attributes and label
// stated on that same row.
type Record struct {
	Observation
	Attributes StarAttributes
	Label      Label
}

// Records expands a star into rows carrying its attributes.
func (s Star) Records() []Record {
	out := make([]Record, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = Record{Observation: o, Attributes: s.Attributes, Label: s.Label}
	}
	return out
}

// NormalizeStarID trims and NFC-normalizes an identifier so the same star
// typed or exported differently groups together.
func NormalizeStarID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
