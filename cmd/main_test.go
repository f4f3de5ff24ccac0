package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/app"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/config"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

// offlineConfig keeps the service away from the network and any model on disk.
func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.CatalogURL = ""
	cfg.ModelPath = filepath.Join(t.TempDir(), "model.yaml")
	cfg.WorkerCount = 2
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("EXOSCAN_ADDR", ":8080")
			_ = os.Setenv("EXOSCAN_QUEUE_SIZE", "1000")
			_ = os.Setenv("EXOSCAN_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("EXOSCAN_ADDR")
				_ = os.Unsetenv("EXOSCAN_QUEUE_SIZE")
				_ = os.Unsetenv("EXOSCAN_WORKER_COUNT")
			}()

			convey.Convey("Then the values override the defaults", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the mux is built over a started service", func() {
			ctx := context.Background()
			cfg := offlineConfig(t)
			svc := app.New(app.WithConfig(cfg))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := newMux(ctx, cfg, svc)
			get := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				return w
			}

			convey.Convey("Then the health probe answers", func() {
				w := get("/health")
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.TrimSpace(w.Body.String()), convey.ShouldEqual, `{"status":"healthy"}`)
			})

			convey.Convey("Then the documentation routes are mounted", func() {
				convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/docs/").Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then predictions are refused without a model", func() {
				w := httptest.NewRecorder()
				body := strings.NewReader(`{"rows":[]}`)
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", body))
				convey.So(w.Code, convey.ShouldBeGreaterThanOrEqualTo, http.StatusBadRequest)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When the system updater's context expires", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
				convey.So(ctx.Err(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the service updater's context expires", func() {
			svc := app.New(app.WithConfig(offlineConfig(t)))
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns", func() {
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
				convey.So(ctx.Err(), convey.ShouldNotBeNil)
			})
		})
	})
}
