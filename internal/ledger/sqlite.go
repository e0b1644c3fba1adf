package ledger

import (
	"context"
	"database/sql"
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

// NewSQLiteFromDB wraps an existing handle. Used when the usage ledger and
// the idea store share one database file.
func NewSQLiteFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS usage_events (
	id         TEXT PRIMARY KEY,
	subject    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_subject_kind_created
	ON usage_events(subject, kind, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate usage_events")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CountRange(ctx context.Context, subject string, kind model.UsageKind, start, end time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_events WHERE subject = ? AND kind = ? AND created_at >= ? AND created_at < ?`,
		subject, string(kind), start.UTC(), end.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count usage events")
	}
	return count, nil
}

func (s *SQLiteStore) Record(ctx context.Context, subject string, kind model.UsageKind, at time.Time) (*model.UsageRecord, error) {
	rec := &model.UsageRecord{
		ID:        uuid.New().String(),
		Subject:   subject,
		Kind:      kind,
		CreatedAt: at.UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_events (id, subject, kind, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Subject, string(rec.Kind), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert usage event")
	}
	return rec, nil
}
