// Package store persists ideas and their latest validation scorecards.
package store

import (
	"context"
	"errors"

	"github.com/brightloop/ideaforge/internal/model"
)

// ErrNotFound is returned when the requested idea or scorecard does not exist.
var ErrNotFound = errors.New("store: not found")

// IdeaFilter specifies criteria for listing ideas.
type IdeaFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface for saved ideas and scorecards.
type Store interface {
	// Ideas
	SaveIdea(ctx context.Context, idea *model.Idea) error
	GetIdea(ctx context.Context, id string) (*model.Idea, error)
	ListIdeas(ctx context.Context, filter IdeaFilter) ([]model.Idea, error)
	DeleteIdea(ctx context.Context, id string) error

	// Scorecards. One scorecard per idea; a newer validation overwrites
	// the previous result.
	PutScorecard(ctx context.Context, ideaID string, sc *model.Scorecard) error
	GetScorecard(ctx context.Context, ideaID string) (*model.Scorecard, error)
	PutScorecards(ctx context.Context, cards map[string]*model.Scorecard) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
