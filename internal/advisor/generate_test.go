package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

func TestGenerateName(t *testing.T) {
	client := &stubClient{
		responses: []*anthropic.MessageResponse{textResponse(`"Recipely"`)},
	}
	a := newTestAdvisor(client, nil, 0)

	name, err := a.GenerateName(context.Background(), "organizes family recipes")
	require.NoError(t, err)
	assert.Equal(t, "Recipely", name)

	req := client.request(0)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.9, *req.Temperature, 1e-9)
	assert.Equal(t, int64(50), req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "organizes family recipes")
}

func TestGenerateName_RequiresPurpose(t *testing.T) {
	a := newTestAdvisor(&stubClient{}, nil, 0)
	_, err := a.GenerateName(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateIdea_Instant(t *testing.T) {
	client := &stubClient{
		responses: []*anthropic.MessageResponse{textResponse(`{
			"name": "PlantPal",
			"purpose": "Track watering schedules for houseplants",
			"target_audience": "Apartment plant owners",
			"main_features": "Add plants\nWatering reminders\nCare log",
			"design_notes": "Calm greens, large touch targets",
			"monetization": "Free with a $2.99 premium tier"
		}`)},
	}
	a := newTestAdvisor(client, nil, 0)

	idea, err := a.GenerateIdea(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "PlantPal", idea.Name)
	assert.Contains(t, idea.MainFeatures, "Watering reminders")

	req := client.request(0)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.8, *req.Temperature, 1e-9)
	assert.Contains(t, req.Messages[0].Content, "random simple app idea")
}

func TestGenerateIdea_Conversational(t *testing.T) {
	client := &stubClient{
		responses: []*anthropic.MessageResponse{textResponse(`{
			"name": "TrailNotes",
			"purpose": "Log hikes",
			"target_audience": "Weekend hikers",
			"main_features": "Log\nPhotos\nStats",
			"design_notes": "Earthy palette",
			"monetization": "One-time purchase"
		}`)},
	}
	a := newTestAdvisor(client, nil, 0)

	_, err := a.GenerateIdea(context.Background(), "I love hiking and photography")
	require.NoError(t, err)
	assert.Contains(t, client.request(0).Messages[0].Content, "I love hiking and photography")
}

func TestGenerateIdea_MissingFieldIsMalformed(t *testing.T) {
	client := &stubClient{
		responses: []*anthropic.MessageResponse{textResponse(`{
			"name": "PlantPal",
			"purpose": "Track watering"
		}`)},
	}
	a := newTestAdvisor(client, nil, 0)

	_, err := a.GenerateIdea(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGeneratePrompt(t *testing.T) {
	client := &stubClient{
		responses: []*anthropic.MessageResponse{
			textResponse("Build a web application called PocketChef..."),
		},
	}
	a := newTestAdvisor(client, nil, 0)

	idea := model.Idea{
		Name:         "PocketChef",
		Purpose:      "Organize family recipes",
		MainFeatures: "Import\nTag\nCook mode",
	}
	prompt, err := a.GeneratePrompt(context.Background(), idea)
	require.NoError(t, err)
	assert.Contains(t, prompt, "PocketChef")

	req := client.request(0)
	assert.Equal(t, int64(2000), req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "- Import")
	assert.Contains(t, req.Messages[0].Content, "DO NOT include any image generation requests")
}

func TestGeneratePrompt_RequiresContent(t *testing.T) {
	a := newTestAdvisor(&stubClient{}, nil, 0)
	_, err := a.GeneratePrompt(context.Background(), model.Idea{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
