// Package config loads the service configuration from an optional YAML file
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	AI     AIConfig     `yaml:"ai"`
	Vocab  VocabConfig  `yaml:"vocab"`
	Upload UploadConfig `yaml:"upload"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// AIConfig selects the narrative summary provider.
type AIConfig struct {
	Provider   string        `yaml:"provider"` // "ollama" or "gemini"
	BaseURL    string        `yaml:"base_url,omitempty"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// VocabConfig points at JSON exports used to seed the vocabularies at startup.
type VocabConfig struct {
	FaultReasonsFile  string `yaml:"fault_reasons_file,omitempty"`
	MaterialNamesFile string `yaml:"material_names_file,omitempty"`
}

type UploadConfig struct {
	MaxBytes   int64 `yaml:"max_bytes"`
	SheetIndex int   `yaml:"sheet_index"`
}

// Default returns a configuration usable without any file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8081",
			CORSOrigins:    []string{"*"},
			RequestTimeout: 60 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		AI: AIConfig{
			Provider:   "ollama",
			BaseURL:    "http://localhost:11434",
			Model:      "llama3",
			Timeout:    120 * time.Second,
			MaxRetries: 2,
		},
		Upload: UploadConfig{MaxBytes: 20 << 20},
	}
}

// Load reads path over the defaults, expanding ${VAR} references in the file,
// then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.AI.Provider = getEnv("AI_PROVIDER", cfg.AI.Provider)
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.Model = getEnv("AI_MODEL", cfg.AI.Model)
	cfg.AI.APIKey = getEnv("GEMINI_API_KEY", cfg.AI.APIKey)
	if d, err := time.ParseDuration(getEnv("AI_TIMEOUT", "")); err == nil && d > 0 {
		cfg.AI.Timeout = d
	}
	if n, err := strconv.Atoi(getEnv("AI_MAX_RETRIES", "")); err == nil && n >= 0 {
		cfg.AI.MaxRetries = n
	}

	cfg.Vocab.FaultReasonsFile = getEnv("VOCAB_FAULTS_FILE", cfg.Vocab.FaultReasonsFile)
	cfg.Vocab.MaterialNamesFile = getEnv("VOCAB_MATERIALS_FILE", cfg.Vocab.MaterialNamesFile)

	if n, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", ""), 10, 64); err == nil && n > 0 {
		cfg.Upload.MaxBytes = n
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.AI.Provider {
	case "ollama", "gemini", "none":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" && c.AI.APIKey == "" {
		return errors.New("gemini provider requires an api key")
	}
	if c.Upload.SheetIndex < 0 {
		return fmt.Errorf("invalid sheet index %d", c.Upload.SheetIndex)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
