package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/scoring"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

const predictMessage = "Prediction successful"

// PredictHandler runs request rows through extraction and, for /predict,
// the classifier.
type PredictHandler struct {
	srv *Server
}

// NewPredictHandler creates a handler bound to the server's dependencies.
func NewPredictHandler(s *Server) *PredictHandler {
	return &PredictHandler{srv: s}
}

// HandlePredict handles POST /predict requests. Any star that cannot be
// scored fails the whole request. Scores reach the store only when the
// server persists requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		writeFailure(w, NewKind(op, ErrMethodNotAllow))
		return
	}
	m := h.srv.deps.Model
	if m == nil {
		writeFailure(w, NewKind(op, ErrModelMissing))
		return
	}

	vectors, err := h.extract(w, r, op)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if _, err := pipeline.Matrix(vectors, m.FeatureOrder()); err != nil {
		h.fail(w, r, op, err)
		return
	}

	scorer := scoring.NewClassifierScorer(m)
	preds := make([]types.StarPrediction, 0, len(vectors))
	for i := range vectors {
		res, err := scorer.Score(r.Context(), scoring.Input{Vector: &vectors[i]})
		if err != nil {
			h.fail(w, r, op, err)
			return
		}
		if st := h.srv.deps.Store; st != nil && h.srv.persist {
			if err := st.SetScore(r.Context(), res.StarID, res.Probability); err != nil {
				logger.Get().Warn(r.Context(), "persist score failed", logger.String("star_id", res.StarID), logger.Error(err))
			}
		}
		preds = append(preds, types.NewStarPrediction(res, &vectors[i]))
	}

	writeJSON(w, http.StatusOK, types.PredictResponse{
		StarPrediction: preds[0],
		Predictions:    preds,
		Message:        predictMessage,
	})
}

// HandleFeatures handles POST /features requests.
func (h *PredictHandler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.features"
	if r.Method != http.MethodPost {
		writeFailure(w, NewKind(op, ErrMethodNotAllow))
		return
	}
	vectors, err := h.extract(w, r, op)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	resp := types.FeaturesResponse{FeatureOrder: model.FeatureNames(), Features: make([]types.FeatureRow, len(vectors))}
	for i := range vectors {
		resp.Features[i] = types.NewFeatureRow(&vectors[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// extract validates the body and returns one vector per star in first-seen order.
func (h *PredictHandler) extract(w http.ResponseWriter, r *http.Request, op string) ([]model.FeatureVector, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, WrapKind(op, ErrTooManyRows, err)
		}
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if err := h.srv.validator.Validate(body); err != nil {
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	var req types.PredictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if len(req.Data) == 0 {
		return nil, NewKind(op, ErrNoData)
	}
	if len(req.Data) > h.srv.maxRows {
		return nil, WrapKind(op, ErrTooManyRows, fmt.Errorf("%d rows exceed the limit of %d", len(req.Data), h.srv.maxRows))
	}

	b := samples.NewBuilder(samples.WithStrict(true))
	for i, row := range req.Data {
		rec, err := row.Record()
		if err == nil {
			err = b.Add(rec)
		}
		if err != nil {
			return nil, WrapKind(op, ErrBadRequest, fmt.Errorf("row %d: %w", i, err))
		}
	}
	src := b.Store()
	ids, err := src.StarIDs(r.Context())
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithWorkers(h.srv.workers), pipeline.WithQueueSize(len(ids))}
	if h.srv.deps.Attributes != nil {
		opts = append(opts, pipeline.WithAttributeSource(h.srv.deps.Attributes))
	}
	if h.srv.deps.Store != nil && h.srv.persist {
		opts = append(opts, pipeline.WithStore(h.srv.deps.Store))
	}
	res, err := pipeline.Run(r.Context(), ids, src, opts...)
	if err != nil {
		return nil, err
	}
	if err := res.FirstError(); err != nil {
		return nil, err
	}
	return res.Vectors, nil
}

func (h *PredictHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	metrics.RecordPredictionError(code)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	} else {
		logger.Get().Debug(r.Context(), "request rejected", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}
