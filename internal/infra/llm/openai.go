package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
	openai "github.com/sashabaranov/go-openai"
)

const openAIBackend = "openai"

// OpenAI extracts records through a chat-completion endpoint. Any server
// that speaks the OpenAI API can be used by setting the base URL.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ pipeline.Extractor = (*OpenAI)(nil)

// NewOpenAI creates a chat-completion client. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeoutOrDefault(timeout),
	}
}

func (o *OpenAI) Extract(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", callError(ctx, openAIBackend, fmt.Errorf("create chat completion: %w", err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", pipeline.NewBackendError(openAIBackend, errors.New("empty response from model"))
	}

	logger.FromContext(ctx).Debug().
		Str("backend", openAIBackend).
		Str("model", resp.Model).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("model responded")
	return resp.Choices[0].Message.Content, nil
}
