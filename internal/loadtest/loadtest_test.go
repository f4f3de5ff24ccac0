package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func testConfig(url string) *Config {
	return &Config{
		BaseURL:         url,
		Stars:           24,
		Points:          100,
		StarsPerRequest: 5,
		TransitFraction: 0.5,
		Workers:         3,
		Timeout:         5 * time.Second,
		Seed:            7,
	}
}

// fakeServer scores a star 0.9 when its curve dips and 0.1 otherwise.
func fakeServer(t *testing.T, predictStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		if predictStatus != http.StatusOK {
			http.Error(w, "boom", predictStatus)
			return
		}
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		minFlux := map[string]float64{}
		var order []string
		for _, row := range req.Data {
			id := string(row.StarID)
			m, ok := minFlux[id]
			if !ok {
				order = append(order, id)
				m = row.Flux
			}
			minFlux[id] = min(m, row.Flux)
		}
		var resp types.PredictResponse
		for _, id := range order {
			p := 0.1
			if minFlux[id] < 1-minTransitDepth/2 {
				p = 0.9
			}
			resp.Predictions = append(resp.Predictions, types.StarPrediction{
				StarID:                id,
				Probability:           p,
				ProbabilityPercentage: p * 100,
				ConfidenceInterval:    types.ConfidenceInterval{LowerBound: p*100 - 5, UpperBound: p*100 + 5},
			})
		}
		resp.StarPrediction = resp.Predictions[0]
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()
		cfg := testConfig("http://unused")

		a, err := generateStars(ctx, cfg, "0123456789abcdef", cfg.Seed)
		So(err, ShouldBeNil)
		b, err := generateStars(ctx, cfg, "0123456789abcdef", cfg.Seed)
		So(err, ShouldBeNil)

		Convey("Then the same seed yields the same curves", func() {
			So(a, ShouldResemble, b)
			So(len(a), ShouldEqual, cfg.Stars)
			So(a[0].ID, ShouldEqual, "LT-01234567-00000")
		})

		Convey("Then only transit stars dip", func() {
			for _, s := range a {
				So(len(s.Rows), ShouldEqual, cfg.Points)
				low := 2.0
				for _, r := range s.Rows {
					low = min(low, r.Flux)
					So(r.Teff.Valid, ShouldBeTrue)
				}
				if s.Transit {
					So(s.Depth, ShouldBeBetweenOrEqual, minTransitDepth, maxTransitDepth)
					So(low, ShouldBeLessThan, 1-minTransitDepth+10*noiseSigma)
				} else {
					So(low, ShouldBeGreaterThan, 1-10*noiseSigma)
				}
			}
		})

		Convey("Then the curve edges stay at baseline", func() {
			rng := rand.New(rand.NewPCG(1, 1))
			s := generateStar(rng, "x", 200, true)
			So(s.Rows[0].Flux, ShouldBeGreaterThan, 1-10*noiseSigma)
			So(s.Rows[199].Flux, ShouldBeGreaterThan, 1-10*noiseSigma)
		})

		Convey("Then a zero transit fraction injects nothing", func() {
			cfg.TransitFraction = 0
			stars, err := generateStars(ctx, cfg, "run", cfg.Seed)
			So(err, ShouldBeNil)
			for _, s := range stars {
				So(s.Transit, ShouldBeFalse)
			}
		})
	})
}

func TestBatches(t *testing.T) {
	Convey("Given 12 stars packed by 5", t, func() {
		cfg := testConfig("")
		cfg.Stars = 12
		stars, err := generateStars(context.Background(), cfg, "run", 1)
		So(err, ShouldBeNil)

		reqs := batches(stars, 5)
		So(len(reqs), ShouldEqual, 3)
		So(len(reqs[0].Data), ShouldEqual, 5*cfg.Points)
		So(len(reqs[2].Data), ShouldEqual, 2*cfg.Points)
		So(string(reqs[2].Data[0].StarID), ShouldEqual, stars[10].ID)
	})
}

func TestLatency(t *testing.T) {
	Convey("Given request outcomes", t, func() {
		var results []outcome
		for i := 1; i <= 100; i++ {
			results = append(results, outcome{latency: time.Duration(i) * time.Millisecond})
		}
		results = append(results, outcome{latency: time.Hour, err: context.Canceled})

		s := summarizeLatency(results)
		So(s.Count, ShouldEqual, 100)
		So(s.Min, ShouldEqual, time.Millisecond)
		So(s.Max, ShouldEqual, 100*time.Millisecond)
		So(s.P95, ShouldEqual, 95*time.Millisecond)
		So(s.P99, ShouldEqual, 99*time.Millisecond)
		So(s.P50, ShouldEqual, 50500*time.Microsecond)

		So(summarizeLatency(nil), ShouldResemble, LatencySummary{})
	})
}

func TestValidate(t *testing.T) {
	Convey("Config validation", t, func() {
		So(testConfig("http://x").Validate(), ShouldBeNil)

		cfg := testConfig("")
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = testConfig("http://x")
		cfg.Points = 3
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = testConfig("http://x")
		cfg.TransitFraction = 1.5
		So(cfg.Validate(), ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a server that scores dips high", t, func() {
		srv := fakeServer(t, http.StatusOK)
		cfg := testConfig(srv.URL)
		cfg.OutputFile = filepath.Join(t.TempDir(), "out", "stars.json")

		st, err := Run(context.Background(), cfg)
		So(err, ShouldBeNil)

		Convey("Then every star is scored", func() {
			So(st.RunID, ShouldNotBeEmpty)
			So(st.StarsGenerated, ShouldEqual, 24)
			So(st.RequestsSubmitted, ShouldEqual, 5)
			So(st.RequestsFailed, ShouldEqual, 0)
			So(st.StarsScored, ShouldEqual, 24)
			So(st.Latency.Count, ShouldEqual, 5)
		})

		Convey("Then transit stars outscore flat ones", func() {
			sep := st.Separation
			So(sep.Missing, ShouldEqual, 0)
			So(sep.OutOfInterval, ShouldEqual, 0)
			So(sep.TransitStars+sep.FlatStars, ShouldEqual, 24)
			if sep.TransitStars > 0 && sep.FlatStars > 0 {
				So(sep.Gap(), ShouldAlmostEqual, 0.8, 1e-9)
			}
		})

		Convey("Then the generated stars were saved", func() {
			data, err := os.ReadFile(cfg.OutputFile)
			So(err, ShouldBeNil)
			var saved []Star
			So(json.Unmarshal(data, &saved), ShouldBeNil)
			So(len(saved), ShouldEqual, 24)
		})
	})

	Convey("Given a server failing every prediction", t, func() {
		srv := fakeServer(t, http.StatusServiceUnavailable)
		st, err := Run(context.Background(), testConfig(srv.URL))

		So(err, ShouldNotBeNil)
		So(st.RequestsFailed, ShouldEqual, 5)
		So(st.StarsScored, ShouldEqual, 0)
		So(st.Separation.Missing, ShouldEqual, 24)
	})

	Convey("Given an unreachable server", t, func() {
		srv := fakeServer(t, http.StatusOK)
		srv.Close()
		_, err := Run(context.Background(), testConfig(srv.URL))
		So(err, ShouldNotBeNil)
	})
}
