package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brightloop/ideaforge/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle so the usage ledger can share the same
// database file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ideas (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scorecards (
	idea_id      TEXT PRIMARY KEY REFERENCES ideas(id),
	payload      TEXT NOT NULL,
	generated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ideas_name ON ideas(name);
CREATE INDEX IF NOT EXISTS idx_ideas_updated ON ideas(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveIdea(ctx context.Context, idea *model.Idea) error {
	now := time.Now().UTC()
	if idea.ID == "" {
		idea.ID = uuid.New().String()
		idea.CreatedAt = now
	}
	idea.UpdatedAt = now

	payload, err := json.Marshal(idea)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal idea")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ideas (id, name, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, payload = excluded.payload, updated_at = excluded.updated_at`,
		idea.ID, idea.Name, string(payload), idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save idea")
	}
	return nil
}

func (s *SQLiteStore) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM ideas WHERE id = ?`, id,
	)
	return scanIdea(row)
}

func (s *SQLiteStore) ListIdeas(ctx context.Context, filter IdeaFilter) ([]model.Idea, error) {
	query := `SELECT payload FROM ideas ORDER BY updated_at DESC`
	var args []any
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ideas")
	}
	defer rows.Close()

	var ideas []model.Idea
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan idea row")
		}
		var idea model.Idea
		if err := json.Unmarshal([]byte(payload), &idea); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal idea")
		}
		ideas = append(ideas, idea)
	}
	return ideas, eris.Wrap(rows.Err(), "sqlite: iterate ideas")
}

func (s *SQLiteStore) DeleteIdea(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scorecards WHERE idea_id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete scorecard")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete idea")
	}
	return checkRowsAffected(res, "idea", id)
}

func (s *SQLiteStore) PutScorecard(ctx context.Context, ideaID string, sc *model.Scorecard) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scorecard")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scorecards (idea_id, payload, generated_at) VALUES (?, ?, ?)
		 ON CONFLICT(idea_id) DO UPDATE SET payload = excluded.payload, generated_at = excluded.generated_at`,
		ideaID, string(payload), sc.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: put scorecard")
	}
	return nil
}

func (s *SQLiteStore) GetScorecard(ctx context.Context, ideaID string) (*model.Scorecard, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM scorecards WHERE idea_id = ?`, ideaID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scorecard")
	}

	var sc model.Scorecard
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal scorecard")
	}
	return &sc, nil
}

func (s *SQLiteStore) PutScorecards(ctx context.Context, cards map[string]*model.Scorecard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scorecards (idea_id, payload, generated_at) VALUES (?, ?, ?)
		 ON CONFLICT(idea_id) DO UPDATE SET payload = excluded.payload, generated_at = excluded.generated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare put scorecards")
	}
	defer stmt.Close()

	count := 0
	for ideaID, sc := range cards {
		payload, err := json.Marshal(sc)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal scorecard")
		}
		if _, err := stmt.ExecContext(ctx, ideaID, string(payload), sc.GeneratedAt.UTC()); err != nil {
			return 0, eris.Wrapf(err, "sqlite: put scorecard %s", ideaID)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit put scorecards")
	}
	return count, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanIdea(row scannable) (*model.Idea, error) {
	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan idea")
	}

	var idea model.Idea
	if err := json.Unmarshal([]byte(payload), &idea); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal idea")
	}
	return &idea, nil
}
