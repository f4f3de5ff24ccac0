package samples

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is a Source backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Import copies every record of src into the database in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, src Source) (int, error) {
	ids, err := src.StarIDs(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations
		(star_id, time, flux, flux_err, teff, radius, mass, logg, feh, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, id := range ids {
		recs, err := src.Records(ctx, id)
		if err != nil {
			return n, err
		}
		for _, r := range recs {
			a := r.Attributes
			if _, err := stmt.ExecContext(ctx, r.StarID, r.Time, r.Flux, r.FluxErr,
				nullable(a.Teff), nullable(a.Radius), nullable(a.Mass), nullable(a.Logg), nullable(a.FeH),
				nullableLabel(r.Label)); err != nil {
				return n, fmt.Errorf("insert %s: %w", id, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// StarIDs implements Source.
func (s *SQLiteStore) StarIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT star_id FROM observations GROUP BY star_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("query star ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan star id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Records implements Source.
func (s *SQLiteStore) Records(ctx context.Context, starID string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT star_id, time, flux, flux_err, teff, radius, mass, logg, feh, label
		FROM observations WHERE star_id = ? ORDER BY id`, starID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", starID, err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			r                             model.Record
			teff, radius, mass, logg, feh sql.NullFloat64
			label                         sql.NullInt64
		)
		if err := rows.Scan(&r.StarID, &r.Time, &r.Flux, &r.FluxErr, &teff, &radius, &mass, &logg, &feh, &label); err != nil {
			return nil, fmt.Errorf("scan %s: %w", starID, err)
		}
		r.Attributes = model.StarAttributes{
			Teff: optional(teff), Radius: optional(radius), Mass: optional(mass), Logg: optional(logg), FeH: optional(feh),
		}
		r.Label = model.LabelUnknown
		if label.Valid {
			r.Label = model.Label(label.Int64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	return out, nil
}

func nullable(o model.Optional) sql.NullFloat64 {
	return sql.NullFloat64{Float64: o.Value, Valid: o.Valid}
}

func nullableLabel(l model.Label) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(l), Valid: l != model.LabelUnknown}
}

func optional(n sql.NullFloat64) model.Optional {
	if !n.Valid {
		return model.None()
	}
	return model.Some(n.Float64)
}
