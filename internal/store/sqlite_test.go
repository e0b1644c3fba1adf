package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testIdea(name string) *model.Idea {
	return &model.Idea{
		Name:           name,
		Purpose:        "Track houseplant watering schedules",
		TargetAudience: "Urban plant owners",
	}
}

func testScorecard(overall int) *model.Scorecard {
	return &model.Scorecard{
		OverallScore: overall,
		Verdict:      model.VerdictMaybe,
		Scores: model.SubScores{
			MarketNeed:   model.ScoreDetail{Score: 6, Reason: "steady interest"},
			Competition:  model.ScoreDetail{Score: 6, Reason: "a few incumbents"},
			Monetization: model.ScoreDetail{Score: 6, Reason: "subscriptions plausible"},
			Feasibility:  model.ScoreDetail{Score: 6, Reason: "simple CRUD app"},
		},
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLite_SaveAndGetIdea(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	idea := testIdea("PlantPal")
	require.NoError(t, st.SaveIdea(ctx, idea))
	assert.NotEmpty(t, idea.ID)
	assert.False(t, idea.CreatedAt.IsZero())

	got, err := st.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "PlantPal", got.Name)
	assert.Equal(t, "Track houseplant watering schedules", got.Purpose)
}

func TestSQLite_GetIdea_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetIdea(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_SaveIdea_UpdatesInPlace(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	idea := testIdea("PlantPal")
	require.NoError(t, st.SaveIdea(ctx, idea))
	created := idea.CreatedAt

	idea.Purpose = "Track watering and fertilizing"
	require.NoError(t, st.SaveIdea(ctx, idea))

	got, err := st.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Track watering and fertilizing", got.Purpose)
	assert.Equal(t, created.Unix(), got.CreatedAt.Unix())

	ideas, err := st.ListIdeas(ctx, IdeaFilter{})
	require.NoError(t, err)
	assert.Len(t, ideas, 1)
}

func TestSQLite_ListIdeas_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testIdea("First")
	require.NoError(t, st.SaveIdea(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := testIdea("Second")
	require.NoError(t, st.SaveIdea(ctx, second))

	ideas, err := st.ListIdeas(ctx, IdeaFilter{})
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "Second", ideas[0].Name)

	limited, err := st.ListIdeas(ctx, IdeaFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_DeleteIdea(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	idea := testIdea("Doomed")
	require.NoError(t, st.SaveIdea(ctx, idea))
	require.NoError(t, st.PutScorecard(ctx, idea.ID, testScorecard(62)))

	require.NoError(t, st.DeleteIdea(ctx, idea.ID))

	_, err := st.GetIdea(ctx, idea.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = st.GetScorecard(ctx, idea.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_DeleteIdea_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.DeleteIdea(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_PutScorecard_LatestWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	idea := testIdea("PlantPal")
	require.NoError(t, st.SaveIdea(ctx, idea))

	require.NoError(t, st.PutScorecard(ctx, idea.ID, testScorecard(52)))
	second := testScorecard(71)
	second.Verdict = model.VerdictGo
	require.NoError(t, st.PutScorecard(ctx, idea.ID, second))

	got, err := st.GetScorecard(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 71, got.OverallScore)
	assert.Equal(t, model.VerdictGo, got.Verdict)
}

func TestSQLite_PutScorecards_Bulk(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := testIdea("A")
	b := testIdea("B")
	require.NoError(t, st.SaveIdea(ctx, a))
	require.NoError(t, st.SaveIdea(ctx, b))

	n, err := st.PutScorecards(ctx, map[string]*model.Scorecard{
		a.ID: testScorecard(75),
		b.ID: testScorecard(44),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := st.GetScorecard(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 44, got.OverallScore)
}

func TestSQLite_PutScorecards_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.PutScorecards(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
