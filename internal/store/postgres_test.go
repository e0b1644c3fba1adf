package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_GetIdea_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM ideas WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetIdea(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetIdea(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	payload, err := json.Marshal(&model.Idea{ID: "idea-1", Name: "PlantPal"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM ideas WHERE id = \$1`).
		WithArgs("idea-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	idea, err := s.GetIdea(context.Background(), "idea-1")
	require.NoError(t, err)
	assert.Equal(t, "PlantPal", idea.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveIdea_AssignsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO ideas`).
		WithArgs(pgxmock.AnyArg(), "PlantPal", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	idea := &model.Idea{Name: "PlantPal"}
	require.NoError(t, s.SaveIdea(context.Background(), idea))
	assert.NotEmpty(t, idea.ID)
	assert.False(t, idea.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteIdea_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM scorecards WHERE idea_id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM ideas WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteIdea(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutScorecard_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scorecards .+ ON CONFLICT \(idea_id\) DO UPDATE`).
		WithArgs("idea-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sc := &model.Scorecard{
		OverallScore: 75,
		Verdict:      model.VerdictGo,
		GeneratedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.PutScorecard(context.Background(), "idea-1", sc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetScorecard_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM scorecards WHERE idea_id = \$1`).
		WithArgs("idea-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetScorecard(context.Background(), "idea-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListIdeas(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	p1, _ := json.Marshal(&model.Idea{ID: "a", Name: "First"})
	p2, _ := json.Marshal(&model.Idea{ID: "b", Name: "Second"})

	mock.ExpectQuery(`SELECT payload FROM ideas ORDER BY updated_at DESC`).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(p1).AddRow(p2))

	ideas, err := s.ListIdeas(context.Background(), IdeaFilter{})
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "First", ideas[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutScorecards_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.PutScorecards(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
