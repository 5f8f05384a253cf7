package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the generateContent endpoint with a single user turn.
type GeminiClient struct {
	httpClient *resty.Client
	model      string
	apiKey     string
	logger     *zap.Logger
}

func NewGeminiClient(opts ClientOptions, logger *zap.Logger) *GeminiClient {
	if opts.BaseURL == "" {
		opts.BaseURL = geminiBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	return &GeminiClient{
		httpClient: opts.restyClient(),
		model:      opts.Model,
		apiKey:     opts.APIKey,
		logger:     nopIfNil(logger),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	var parsed geminiResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetQueryParam("key", c.apiKey).
		SetBody(geminiRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&parsed).
		Post("/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("gemini returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 512)))
		return "", fmt.Errorf("gemini returned status: %d", resp.StatusCode())
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}
