package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.starsProcessed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_stars_processed_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When stars are processed and skipped", func() {
			before := testutil.ToFloat64(globalManager.starsProcessed)
			RecordStarProcessed(3 * time.Millisecond)
			RecordStarSkipped(ReasonMissingData)
			RecordStarSkipped(ReasonMissingData)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.starsProcessed), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.starsSkipped.WithLabelValues(ReasonMissingData)), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When a star has no dip", func() {
			before := testutil.ToFloat64(globalManager.starsWithoutDip)
			RecordDip(0)
			RecordDip(4)
			So(testutil.ToFloat64(globalManager.starsWithoutDip), ShouldEqual, before+1)
		})

		Convey("When recording the rest of the surface", func() {
			So(func() {
				RecordObservations(10, map[string]int{"non_finite": 2})
				RecordPrediction(0.42, time.Millisecond)
				RecordPredictionError("undefined_feature")
				RecordCatalogRequest("q1_q17_dr25_stellar", "ok", 20*time.Millisecond)
				RecordCatalogCache(true)
				RecordCatalogCache(false)
				UpdateFeatureVectorsStored(7)
				RecordRepositoryLatency("put", time.Millisecond)
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 0.01)
				UpdateQueueSize(1)
				UpdateQueueCapacity(8)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerJob(time.Millisecond, errors.New("boom"))
				UpdateSystemMetrics()
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.featureVectorsStored), ShouldEqual, 7)
		})
	})
}

func TestDisabledManager(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(prometheus.NewRegistry()))
		defer func() { globalManager = saved }()

		RecordStarProcessed(time.Millisecond)
		So(testutil.ToFloat64(globalManager.starsProcessed), ShouldEqual, 0)
	})
}

func TestRegistryExposition(t *testing.T) {
	Convey("The custom registry exposes exoscan metrics", t, func() {
		RecordHTTPRequest("/health", "GET", "200")
		n, err := testutil.GatherAndCount(GetRegistry(), "exoscan_pipeline_http_requests_total")
		So(err, ShouldBeNil)
		So(n, ShouldBeGreaterThan, 0)
		So(strings.HasPrefix("exoscan_pipeline_http_requests_total", "exoscan_"), ShouldBeTrue)
	})
}
