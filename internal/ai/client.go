package ai

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/config"
)

// ClientOptions configure the HTTP side of a provider client.
type ClientOptions struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

func (o ClientOptions) restyClient() *resty.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	wait := o.RetryWait
	if wait <= 0 {
		wait = time.Second
	}
	return resty.New().
		SetBaseURL(o.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(o.MaxRetries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(5*wait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// NewGenerator builds the client for the configured provider. Provider
// "none" yields ErrNotConfigured.
func NewGenerator(cfg config.AIConfig, logger *zap.Logger) (Generator, error) {
	opts := ClientOptions{
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(opts, logger), nil
	case "gemini":
		return NewGeminiClient(opts, logger), nil
	case "none", "":
		return nil, ErrNotConfigured
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
