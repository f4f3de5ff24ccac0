package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/catalog"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/config"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/dedupe"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

const catalogCacheTTL = 7 * 24 * time.Hour

var errInputFlags = errors.New("exactly one of --in or --db is required")

// sourceFlags select where observation rows come from.
type sourceFlags struct {
	in     string
	db     string
	strict bool
	dedupe bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in, "in", "", "observation rows CSV (star_id,time,flux,flux_err[,teff,radius,mass,logg,feh,label])")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite database filled by 'exoscan ingest'")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on the first invalid row instead of dropping it")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", false, "drop rows repeating an earlier (star_id, time)")
}

// loaded is an opened source with what it took to open it.
type loaded struct {
	src    samples.Source
	report *samples.Report
	close  func() error
}

func (f *sourceFlags) open(cfg *config.Config) (*loaded, error) {
	db := f.db
	if db == "" && f.in == "" {
		db = cfg.SamplesDB
	}
	switch {
	case f.in != "" && db == "":
		b, err := readRows(f.in, f.strict, f.dedupe)
		if err != nil {
			return nil, err
		}
		rep := b.Report()
		metrics.RecordObservations(rep.Accepted, rep.Dropped)
		return &loaded{src: b.Store(), report: &rep, close: func() error { return nil }}, nil
	case f.in == "" && db != "":
		store, err := samples.OpenSQLite(db)
		if err != nil {
			return nil, err
		}
		return &loaded{src: store, close: store.Close}, nil
	default:
		return nil, errInputFlags
	}
}

func readRows(path string, strict, dedup bool) (*samples.Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := []samples.Option{samples.WithStrict(strict)}
	if dedup {
		opts = append(opts, samples.WithDeduper(dedupe.NewInMemoryDeduper()))
	}
	b := samples.NewBuilder(opts...)
	if err := samples.ReadCSV(f, b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// newCatalog builds the archive client from config. The returned func closes
// the on-disk cache, if any.
func newCatalog(cfg *config.Config) (*catalog.Client, func() error, error) {
	opts := []catalog.Option{
		catalog.WithBaseURL(cfg.CatalogURL),
		catalog.WithTimeout(cfg.CatalogTimeout()),
		catalog.WithRetry(cfg.CatalogRetries+1, 0),
	}
	closer := func() error { return nil }
	if cfg.CatalogCacheDir != "" {
		cache, err := catalog.OpenBadgerCache(cfg.CatalogCacheDir, catalogCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, catalog.WithCache(cache))
		closer = cache.Close
	}
	return catalog.New(opts...), closer, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
