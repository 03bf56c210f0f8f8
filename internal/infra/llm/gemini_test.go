package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/chat-ledger/internal/pipeline"
	"google.golang.org/genai"
)

// MockContentGenerator is a mock implementation of contentGenerator.
type MockContentGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestGemini_Extract(t *testing.T) {
	const raw = `{"date":"今天","item":"午餐","amount":120,"category":"餐飲"}`

	t.Run("returns text and requests JSON", func(t *testing.T) {
		var gotModel, gotPrompt string
		var gotConfig *genai.GenerateContentConfig
		g := &Gemini{
			model:   "gemini-2.5-flash",
			timeout: time.Second,
			models: &MockContentGenerator{GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				gotModel = model
				gotPrompt = contents[0].Parts[0].Text
				gotConfig = config
				return textResponse(raw), nil
			}},
		}

		got, err := g.Extract(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if got != raw {
			t.Errorf("Extract() = %q, want %q", got, raw)
		}
		if gotModel != "gemini-2.5-flash" || gotPrompt != "prompt" {
			t.Errorf("called with model %q prompt %q", gotModel, gotPrompt)
		}
		if gotConfig == nil || gotConfig.ResponseMIMEType != "application/json" {
			t.Errorf("config = %+v, want JSON response type", gotConfig)
		}
	})

	t.Run("non-conforming text is not an error", func(t *testing.T) {
		g := &Gemini{timeout: time.Second, models: &MockContentGenerator{GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("I cannot help with that."), nil
		}}}
		if _, err := g.Extract(context.Background(), "p"); err != nil {
			t.Errorf("Extract() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
	}{
		{name: "call error", err: errors.New("429 resource exhausted")},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "blocked prompt", resp: &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Gemini{timeout: time.Second, models: &MockContentGenerator{GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return tt.resp, tt.err
			}}}
			_, err := g.Extract(context.Background(), "p")
			if !errors.Is(err, pipeline.ErrBackendUnavailable) {
				t.Errorf("Extract() error = %v, want ErrBackendUnavailable", err)
			}
		})
	}

	t.Run("deadline", func(t *testing.T) {
		g := &Gemini{timeout: 10 * time.Millisecond, models: &MockContentGenerator{GenerateContentFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}}
		_, err := g.Extract(context.Background(), "p")
		if !errors.Is(err, pipeline.ErrBackendUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Extract() error = %v, want backend deadline error", err)
		}
	})
}
