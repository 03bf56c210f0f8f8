package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
	"google.golang.org/genai"
)

const geminiBackend = "gemini"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini extracts records with the Gemini API.
type Gemini struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

var _ pipeline.Extractor = (*Gemini)(nil)

// NewGemini creates a Gemini client. An empty apiKey lets the SDK read
// GOOGLE_API_KEY / GEMINI_API_KEY itself.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	return &Gemini{models: client.Models, model: model, timeout: timeoutOrDefault(timeout)}, nil
}

func (g *Gemini) Extract(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return "", callError(ctx, geminiBackend, fmt.Errorf("generate content: %w", err))
	}

	rawText := resp.Text()
	if rawText == "" {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + string(resp.PromptFeedback.BlockReason)
		} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reason = "finish reason " + string(resp.Candidates[0].FinishReason)
		}
		return "", pipeline.NewBackendError(geminiBackend, errors.New("empty response from model: "+reason))
	}

	logger.FromContext(ctx).Debug().Str("backend", geminiBackend).Str("model", g.model).Msg("model responded")
	return rawText, nil
}
