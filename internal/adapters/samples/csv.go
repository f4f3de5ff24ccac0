package samples

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Column names understood by ReadCSV.
const (
	ColStarID  = "star_id"
	ColTime    = "time"
	ColFlux    = "flux"
	ColFluxErr = "flux_err"
	ColLabel   = "label"
	ColTeff    = "teff"
	ColRadius  = "radius"
	ColMass    = "mass"
	ColLogg    = "logg"
	ColFeH     = "feh"
)

var requiredColumns = []string{ColStarID, ColTime, ColFlux, ColFluxErr}

// ReadCSV parses observation rows into b. A missing required column or a
// non-numeric cell aborts the load with ErrMalformed. Empty or NaN cells in
// time, flux or flux_err are handed to the builder as non-finite values.
func ReadCSV(r io.Reader, b *Builder) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrMalformed, c)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		row, err := parseRow(rec, cols)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		if err := b.Add(row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func parseRow(rec []string, cols map[string]int) (model.Record, error) {
	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	num := func(name string) (float64, error) {
		s, _ := cell(name)
		if s == "" {
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not numeric", name, s)
		}
		return v, nil
	}
	opt := func(name string) (model.Optional, error) {
		s, ok := cell(name)
		if !ok {
			return model.None(), nil
		}
		v, err := model.ParseOptional(s)
		if err != nil {
			return model.None(), fmt.Errorf("column %s: %w", name, err)
		}
		return v, nil
	}

	var out model.Record
	var err error
	out.StarID, _ = cell(ColStarID)
	if out.Time, err = num(ColTime); err != nil {
		return out, err
	}
	if out.Flux, err = num(ColFlux); err != nil {
		return out, err
	}
	if out.FluxErr, err = num(ColFluxErr); err != nil {
		return out, err
	}
	attrs := []struct {
		name string
		dst  *model.Optional
	}{
		{ColTeff, &out.Attributes.Teff},
		{ColRadius, &out.Attributes.Radius},
		{ColMass, &out.Attributes.Mass},
		{ColLogg, &out.Attributes.Logg},
		{ColFeH, &out.Attributes.FeH},
	}
	for _, a := range attrs {
		if *a.dst, err = opt(a.name); err != nil {
			return out, err
		}
	}
	label, _ := cell(ColLabel)
	if out.Label, err = model.ParseLabel(label); err != nil {
		return out, err
	}
	return out, nil
}
