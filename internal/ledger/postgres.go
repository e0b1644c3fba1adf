package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brightloop/ideaforge/internal/db"
	"github.com/brightloop/ideaforge/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		pgxCfg.MaxConns = maxConns
	}
	if minConns > 0 {
		pgxCfg.MinConns = minConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used when the usage ledger
// and the idea store share one database.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS usage_events (
	id         TEXT PRIMARY KEY,
	subject    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_subject_kind_created
	ON usage_events(subject, kind, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate usage_events")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CountRange(ctx context.Context, subject string, kind model.UsageKind, start, end time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM usage_events WHERE subject = $1 AND kind = $2 AND created_at >= $3 AND created_at < $4`,
		subject, string(kind), start.UTC(), end.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count usage events")
	}
	return count, nil
}

func (s *PostgresStore) Record(ctx context.Context, subject string, kind model.UsageKind, at time.Time) (*model.UsageRecord, error) {
	rec := &model.UsageRecord{
		ID:        uuid.New().String(),
		Subject:   subject,
		Kind:      kind,
		CreatedAt: at.UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_events (id, subject, kind, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Subject, string(rec.Kind), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert usage event")
	}
	return rec, nil
}
