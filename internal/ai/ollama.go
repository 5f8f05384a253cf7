package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Generator produces a free-text completion for a prompt.
type Generator interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

type OllamaClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

func NewOllamaClient(opts ClientOptions, logger *zap.Logger) *OllamaClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	if opts.Model == "" {
		opts.Model = "llama3.2:latest"
	}
	return &OllamaClient{
		httpClient: opts.restyClient(),
		model:      opts.Model,
		logger:     nopIfNil(logger),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *OllamaClient) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	var parsed generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(generateRequest{Model: c.model, Prompt: prompt, Stream: false}).
		SetResult(&parsed).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("ollama returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 512)))
		return "", fmt.Errorf("ollama returned status: %d", resp.StatusCode())
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return parsed.Response, nil
}
