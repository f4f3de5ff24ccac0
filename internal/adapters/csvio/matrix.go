// Package csvio reads and writes feature matrices as CSV: star_id, the
// feature columns in their fixed order, then label.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Leading and trailing column names.
const (
	ColStarID = "star_id"
	ColLabel  = "label"
)

// Header returns the matrix header row.
func Header() []string {
	out := make([]string, 0, model.NumFeatures+2)
	out = append(out, ColStarID)
	out = append(out, model.FeatureNames()...)
	return append(out, ColLabel)
}

// Writer streams feature vectors as CSV rows.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
	row         []string
}

// NewWriter returns a Writer on w. The header is written with the first row.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w), row: make([]string, model.NumFeatures+2)}
}

// Write appends one vector. Undefined values are written as NaN and an
// unknown label as an empty cell.
func (w *Writer) Write(fv *model.FeatureVector) error {
	if err := w.header(); err != nil {
		return err
	}
	w.row[0] = fv.StarID
	for i, v := range fv.Values {
		w.row[i+1] = v.String()
	}
	w.row[len(w.row)-1] = fv.Label.String()
	if err := w.cw.Write(w.row); err != nil {
		return fmt.Errorf("write star %s: %w", fv.StarID, err)
	}
	return nil
}

// Flush writes the header when nothing was written yet and flushes the buffer.
func (w *Writer) Flush() error {
	if err := w.header(); err != nil {
		return err
	}
	w.cw.Flush()
	return w.cw.Error()
}

func (w *Writer) header() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	if err := w.cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WriteMatrix writes every vector in order and flushes.
func WriteMatrix(w io.Writer, vectors []model.FeatureVector) error {
	cw := NewWriter(w)
	for i := range vectors {
		if err := cw.Write(&vectors[i]); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// ReadMatrix parses a matrix written by WriteMatrix. The feature columns must
// appear exactly in the fixed order; the label column is optional.
func ReadMatrix(r io.Reader) ([]model.FeatureVector, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	if len(header) < model.NumFeatures+1 || header[0] != ColStarID {
		return nil, fmt.Errorf("%w: header must start with %s and the feature columns", ErrMalformed, ColStarID)
	}
	if !model.SameOrder(header[1 : model.NumFeatures+1]) {
		return nil, fmt.Errorf("%w: got %v", ErrSchemaMismatch, header[1:model.NumFeatures+1])
	}
	labelCol := slices.Index(header, ColLabel)

	var out []model.FeatureVector
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		fv := model.FeatureVector{StarID: model.NormalizeStarID(rec[0]), Label: model.LabelUnknown}
		if fv.StarID == "" {
			return nil, fmt.Errorf("%w: line %d: empty star_id", ErrMalformed, line)
		}
		for i := 0; i < model.NumFeatures; i++ {
			v, err := model.ParseOptional(rec[i+1])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: column %s: %w", ErrMalformed, line, header[i+1], err)
			}
			fv.Values[i] = v
		}
		if labelCol >= 0 {
			if fv.Label, err = model.ParseLabel(rec[labelCol]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
			}
		}
		out = append(out, fv)
	}
}
