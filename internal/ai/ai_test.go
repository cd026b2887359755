package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shanehull/anndash/internal/types"
)

type fakeGenerator struct {
	text  string
	err   error
	model string
	calls int
	cfg   *genai.GenerateContentConfig
	sent  []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.sent = contents
	f.cfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}, Role: "model"},
		}},
	}, nil
}

func pending() []types.Announcement {
	return []types.Announcement{
		{ID: 1, Title: "Milk co-op", CompanyName: "Laiterie du Rhône", Type: "Partnership", Location: "Lyon", Products: "milk"},
		{ID: 2, Title: "Wheat export", Type: "Sale", Location: "Paris", Description: "500t soft wheat"},
	}
}

func TestDigest(t *testing.T) {
	gen := &fakeGenerator{text: `{"summary":["Two requests"],"highlights":[{"id":2,"reason":"500t soft wheat"}]}`}
	s := NewWithGenerator(gen, "gemini-2.5-flash")

	d, err := s.Digest(context.Background(), pending())
	require.NoError(t, err)

	assert.Equal(t, []string{"Two requests"}, d.Summary)
	require.Len(t, d.Highlights, 1)
	assert.Equal(t, int64(2), d.Highlights[0].ID)

	assert.Equal(t, "gemini-2.5-flash", gen.model)
	assert.Equal(t, "application/json", gen.cfg.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"summary", "highlights"}, gen.cfg.ResponseSchema.Required)
	require.NotNil(t, gen.cfg.SystemInstruction)

	require.Len(t, gen.sent, 1)
	prompt := gen.sent[0].Parts[0].Text
	assert.Contains(t, prompt, "[id 1] Milk co-op")
	assert.Contains(t, prompt, "Company: Laiterie du Rhône")
	assert.Contains(t, prompt, "Description: 500t soft wheat")
	assert.Contains(t, prompt, "2 announcements")
}

func TestDigest_Empty(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := NewWithGenerator(gen, "m").Digest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToSummarize)
	assert.Zero(t, gen.calls)
}

func TestDigest_TruncatesSelection(t *testing.T) {
	anns := make([]types.Announcement, maxAnnouncements+10)
	for i := range anns {
		anns[i] = types.Announcement{ID: int64(i + 1), Title: fmt.Sprintf("item %d", i+1)}
	}

	gen := &fakeGenerator{text: `{"summary":[],"highlights":[]}`}
	_, err := NewWithGenerator(gen, "m").Digest(context.Background(), anns)
	require.NoError(t, err)

	prompt := gen.sent[0].Parts[0].Text
	assert.Contains(t, prompt, fmt.Sprintf("[id %d]", maxAnnouncements))
	assert.NotContains(t, prompt, fmt.Sprintf("[id %d]", maxAnnouncements+1))
}

func TestDigest_Errors(t *testing.T) {
	_, err := NewWithGenerator(&fakeGenerator{err: errors.New("quota")}, "m").Digest(context.Background(), pending())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API call failed")

	_, err = NewWithGenerator(&fakeGenerator{text: "not json"}, "m").Digest(context.Background(), pending())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Raw text: not json")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", "m")
	assert.Error(t, err)
}
