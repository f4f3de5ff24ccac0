package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
)

const maxCandidates = 1000

// CandidatesHandler lists the stored stars most likely to host a planet.
type CandidatesHandler struct {
	store repository.Store
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(store repository.Store) *CandidatesHandler {
	return &CandidatesHandler{store: store}
}

// HandleGetCandidates handles GET /candidates?limit=N requests.
func (h *CandidatesHandler) HandleGetCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_candidates"
	if r.Method != http.MethodGet {
		writeFailure(w, NewKind(op, ErrMethodNotAllow))
		return
	}
	n := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxCandidates {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	entries, err := h.store.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	out := make([]types.Candidate, len(entries))
	for i, e := range entries {
		out[i] = types.Candidate{Rank: e.Rank, StarID: e.Vector.StarID, Probability: e.Probability.Value}
	}
	writeJSON(w, http.StatusOK, out)
}

// StarHandler returns the stored vector and score of one star.
type StarHandler struct {
	store repository.Store
}

// NewStarHandler creates a new star handler.
func NewStarHandler(store repository.Store) *StarHandler {
	return &StarHandler{store: store}
}

type starResponse struct {
	types.FeatureRow
	Rank        int      `json:"rank,omitempty"`
	Probability *float64 `json:"probability"`
}

// HandleGetStar handles GET /stars/{star_id} requests.
func (h *StarHandler) HandleGetStar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_star"
	if r.Method != http.MethodGet {
		writeFailure(w, NewKind(op, ErrMethodNotAllow))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/stars/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	resp := starResponse{FeatureRow: types.NewFeatureRow(&e.Vector), Rank: e.Rank}
	if e.Probability.Valid {
		p := e.Probability.Value
		resp.Probability = &p
	}
	writeJSON(w, http.StatusOK, resp)
}
