/*
Package ai asks Gemini for a short digest of the announcements still waiting
for review.
*/
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/shanehull/anndash/internal/types"
)

// maxAnnouncements bounds the prompt size.
const maxAnnouncements = 50

// ErrNothingToSummarize is returned for an empty selection.
var ErrNothingToSummarize = errors.New("no announcements to summarize")

type Highlight struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

type Digest struct {
	Summary    []string    `json:"summary"`
	Highlights []Highlight `json:"highlights"`
}

// Generator is satisfied by genai's Models service.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Summarizer struct {
	gen   Generator
	model string
}

func New(ctx context.Context, apiKey, modelName string) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return NewWithGenerator(client.Models, modelName), nil
}

func NewWithGenerator(gen Generator, modelName string) *Summarizer {
	return &Summarizer{gen: gen, model: modelName}
}

// Digest summarises anns. Only the first maxAnnouncements are sent.
func (s *Summarizer) Digest(ctx context.Context, anns []types.Announcement) (*Digest, error) {
	if len(anns) == 0 {
		return nil, ErrNothingToSummarize
	}
	if len(anns) > maxAnnouncements {
		anns = anns[:maxAnnouncements]
	}

	userContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: buildUserPrompt(anns)},
		},
		Role: "user",
	}
	systemContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: systemInstruction},
		},
	}

	resp, err := s.gen.GenerateContent(ctx, s.model, []*genai.Content{userContent}, &genai.GenerateContentConfig{
		SystemInstruction: systemContent,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    getResponseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()

	var digest Digest
	if err := json.Unmarshal([]byte(respText), &digest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}

	return &digest, nil
}

func getResponseSchema() *genai.Schema {
	highlightSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":     {Type: genai.TypeInteger, Description: "The id of the announcement."},
			"reason": {Type: genai.TypeString, Description: "Why the operator should review it first."},
		},
		Required: []string{"id", "reason"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of 3-5 concise bullet points describing the pending announcements.",
			},
			"highlights": {
				Type:        genai.TypeArray,
				Items:       highlightSchema,
				Description: "Announcements worth reviewing first.",
			},
		},
		Required: []string{"summary", "highlights"},
	}
}
