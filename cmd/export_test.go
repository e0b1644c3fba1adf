package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/internal/store"
)

func TestCollectEntries(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	defer st.Close()

	validated := model.Idea{Name: "PocketChef", Purpose: "Plan meals from the pantry"}
	require.NoError(t, st.SaveIdea(ctx, &validated))
	require.NoError(t, st.PutScorecard(ctx, validated.ID, &model.Scorecard{
		OverallScore: 71,
		Verdict:      model.VerdictGo,
	}))

	unvalidated := model.Idea{Name: "TrailMate", Purpose: "Offline hiking maps"}
	require.NoError(t, st.SaveIdea(ctx, &unvalidated))

	entries, err := collectEntries(ctx, st, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PocketChef", entries[0].Idea.Name)
	assert.Equal(t, 71, entries[0].Card.OverallScore)

	entries, err = collectEntries(ctx, st, validated.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = collectEntries(ctx, st, "missing-id")
	assert.Error(t, err)
}
