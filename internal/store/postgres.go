package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_idea": `INSERT INTO ideas (id, name, payload, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	"get_idea": `SELECT payload FROM ideas WHERE id = $1`,
	"put_scorecard": `INSERT INTO scorecards (idea_id, payload, generated_at) VALUES ($1, $2, $3)
		ON CONFLICT (idea_id) DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`,
	"get_scorecard": `SELECT payload FROM scorecards WHERE idea_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// Pool exposes the underlying pool so the usage ledger can share the same
// database.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ideas (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scorecards (
	idea_id      TEXT PRIMARY KEY REFERENCES ideas(id),
	payload      JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ideas_name ON ideas(name);
CREATE INDEX IF NOT EXISTS idx_ideas_updated ON ideas(updated_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveIdea(ctx context.Context, idea *model.Idea) error {
	now := time.Now().UTC()
	if idea.ID == "" {
		idea.ID = uuid.New().String()
		idea.CreatedAt = now
	}
	idea.UpdatedAt = now

	payload, err := json.Marshal(idea)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal idea")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ideas (id, name, payload, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		idea.ID, idea.Name, payload, idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save idea")
	}
	return nil
}

func (s *PostgresStore) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM ideas WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "idea %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get idea %s", id)
	}

	var idea model.Idea
	if err := json.Unmarshal(payload, &idea); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal idea")
	}
	return &idea, nil
}

func (s *PostgresStore) ListIdeas(ctx context.Context, filter IdeaFilter) ([]model.Idea, error) {
	query := `SELECT payload FROM ideas ORDER BY updated_at DESC`
	var args []any
	if filter.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET $2`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ideas")
	}
	defer rows.Close()

	var ideas []model.Idea
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan idea row")
		}
		var idea model.Idea
		if err := json.Unmarshal(payload, &idea); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal idea")
		}
		ideas = append(ideas, idea)
	}
	return ideas, eris.Wrap(rows.Err(), "postgres: iterate ideas")
}

func (s *PostgresStore) DeleteIdea(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scorecards WHERE idea_id = $1`, id); err != nil {
		return eris.Wrap(err, "postgres: delete scorecard")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM ideas WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: delete idea")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "idea %s", id)
	}
	return nil
}

func (s *PostgresStore) PutScorecard(ctx context.Context, ideaID string, sc *model.Scorecard) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scorecard")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scorecards (idea_id, payload, generated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (idea_id) DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`,
		ideaID, payload, sc.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put scorecard %s", ideaID)
	}
	return nil
}

func (s *PostgresStore) GetScorecard(ctx context.Context, ideaID string) (*model.Scorecard, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM scorecards WHERE idea_id = $1`, ideaID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "scorecard %s", ideaID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scorecard %s", ideaID)
	}

	var sc model.Scorecard
	if err := json.Unmarshal(payload, &sc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal scorecard")
	}
	return &sc, nil
}

// PutScorecards lands a batch of scorecards in one round trip via COPY into
// a temp table and INSERT ... ON CONFLICT.
func (s *PostgresStore) PutScorecards(ctx context.Context, cards map[string]*model.Scorecard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(cards))
	for ideaID, sc := range cards {
		payload, err := json.Marshal(sc)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal scorecard")
		}
		rows = append(rows, []any{ideaID, payload, sc.GeneratedAt.UTC()})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "scorecards",
		Columns:      []string{"idea_id", "payload", "generated_at"},
		ConflictKeys: []string{"idea_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: put scorecards")
	}
	return int(n), nil
}
