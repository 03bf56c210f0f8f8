package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

const ollamaBackend = "ollama"

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Ollama extracts records with a local Ollama server's /api/generate.
type Ollama struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

var _ pipeline.Extractor = (*Ollama)(nil)

// NewOllama creates a client for the server at baseURL, e.g.
// http://localhost:11434.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeoutOrDefault(timeout),
		httpClient: &http.Client{},
	}
}

func (o *Ollama) Extract(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: &generateOptions{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", pipeline.NewBackendError(ollamaBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", callError(ctx, ollamaBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", pipeline.NewBackendError(ollamaBackend,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", callError(ctx, ollamaBackend, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return "", pipeline.NewBackendError(ollamaBackend, errors.New(out.Error))
	}
	if out.Response == "" {
		return "", pipeline.NewBackendError(ollamaBackend, errors.New("empty response from model"))
	}

	logger.FromContext(ctx).Debug().Str("backend", ollamaBackend).Str("model", out.Model).Msg("model responded")
	return out.Response, nil
}
