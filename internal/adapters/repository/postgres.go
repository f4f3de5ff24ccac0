package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

//go:embed schema.sql
var schema string

// PostgresStore is a Store backed by a pgx connection pool. Features are kept
// as a JSONB object keyed by column name so the column order can evolve.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and creates the table when missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Put implements Store.Put.
func (s *PostgresStore) Put(ctx context.Context, fv model.FeatureVector) error {
	if fv.StarID == "" {
		return ErrInvalidStar
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("put", time.Since(start)) }()

	raw, err := json.Marshal(fv.Map())
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO feature_vectors(star_id, features, label, probability, updated_at)
VALUES ($1, $2::jsonb, $3, NULL, now())
ON CONFLICT (star_id) DO UPDATE
SET features = EXCLUDED.features, label = EXCLUDED.label, probability = NULL, updated_at = now()`,
		fv.StarID, string(raw), int16(fv.Label))
	if err != nil {
		return fmt.Errorf("upsert feature vector: %w", err)
	}
	return nil
}

// Get implements Store.Get.
func (s *PostgresStore) Get(ctx context.Context, starID string) (Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("get", time.Since(start)) }()

	row := s.pool.QueryRow(ctx, `
SELECT star_id, features, label, probability, updated_at,
       CASE WHEN probability IS NULL THEN 0 ELSE (
           SELECT COUNT(*) + 1 FROM feature_vectors o
           WHERE o.probability > f.probability
              OR (o.probability = f.probability AND o.star_id < f.star_id)
       ) END
FROM feature_vectors f
WHERE star_id = $1`, starID)
	var rank int64
	e, err := scanEntry(row, &rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get feature vector: %w", err)
	}
	e.Rank = int(rank)
	return e, nil
}

// List implements Store.List.
func (s *PostgresStore) List(ctx context.Context) ([]model.FeatureVector, error) {
	rows, err := s.pool.Query(ctx, `
SELECT star_id, features, label, probability, updated_at
FROM feature_vectors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list feature vectors: %w", err)
	}
	defer rows.Close()

	var out []model.FeatureVector
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature vector: %w", err)
		}
		out = append(out, e.Vector)
	}
	return out, rows.Err()
}

// SetScore implements Store.SetScore.
func (s *PostgresStore) SetScore(ctx context.Context, starID string, probability float64) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("set_score", time.Since(start)) }()

	tag, err := s.pool.Exec(ctx, `
UPDATE feature_vectors SET probability = $2, updated_at = now() WHERE star_id = $1`,
		starID, probability)
	if err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	return nil
}

// TopN implements Store.TopN.
func (s *PostgresStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("top_n", time.Since(start)) }()

	rows, err := s.pool.Query(ctx, `
SELECT star_id, features, label, probability, updated_at
FROM feature_vectors
WHERE probability IS NOT NULL
ORDER BY probability DESC, star_id
LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top-n feature vectors: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature vector: %w", err)
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count implements Store.Count. Query failures are logged and count as zero.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feature_vectors`).Scan(&n); err != nil {
		logger.Get().Warn(ctx, "count feature vectors failed", logger.Error(err))
		return 0
	}
	metrics.UpdateFeatureVectorsStored(int(n))
	return int(n)
}

func scanEntry(row pgx.Row, extra ...any) (Entry, error) {
	var (
		e     Entry
		raw   []byte
		label int16
		prob  *float64
	)
	dest := append([]any{&e.Vector.StarID, &raw, &label, &prob, &e.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Entry{}, err
	}
	if err := decodeFeatures(raw, &e.Vector); err != nil {
		return Entry{}, err
	}
	e.Vector.Label = model.Label(label)
	if prob != nil {
		e.Probability = model.Some(*prob)
	}
	return e, nil
}

func decodeFeatures(raw []byte, fv *model.FeatureVector) error {
	var cols map[string]*float64
	if err := json.Unmarshal(raw, &cols); err != nil {
		return fmt.Errorf("decode features: %w", err)
	}
	for name, v := range cols {
		f, err := model.FeatureByName(name)
		if err != nil {
			return err
		}
		if v != nil {
			fv.Set(f, model.Some(*v))
		}
	}
	return nil
}
