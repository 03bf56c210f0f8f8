package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM backends.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Config holds process settings read from the environment.
type Config struct {
	Port         string
	DatabasePath string

	LLMBackend    string
	LLMModel      string
	LLMTimeout    time.Duration
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string

	LineChannelSecret      string
	LineChannelAccessToken string

	Timezone  string
	LogLevel  string
	LogFormat string

	WorkerCount int
	QueueSize   int

	GCPProject  string
	BQDataset   string
	BQTable     string
	GCSBucket   string
	NotionToken string
	NotionDBID  string
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("config: LLM_TIMEOUT: %w", err)
	}
	workers, err := getEnvInt("WORKER_COUNT", 2)
	if err != nil {
		return nil, err
	}
	queueSize, err := getEnvInt("QUEUE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./ledger.db"),

		LLMBackend:    strings.ToLower(getEnv("LLM_BACKEND", BackendGemini)),
		LLMModel:      getEnv("LLM_MODEL", ""),
		LLMTimeout:    timeout,
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),

		LineChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),

		Timezone:  getEnv("LEDGER_TIMEZONE", "Asia/Taipei"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		WorkerCount: workers,
		QueueSize:   queueSize,

		GCPProject:  os.Getenv("GCP_PROJECT"),
		BQDataset:   getEnv("BQ_DATASET", "ledger"),
		BQTable:     getEnv("BQ_TABLE", "records"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),
		NotionToken: os.Getenv("NOTION_TOKEN"),
		NotionDBID:  os.Getenv("NOTION_DB_ID"),
	}, nil
}

// Model returns LLMModel or the default model for the selected backend.
func (c *Config) Model() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	switch c.LLMBackend {
	case BackendOpenAI:
		return "gpt-4o-mini"
	case BackendOllama:
		return "llama3.2"
	default:
		return "gemini-2.5-flash"
	}
}

// Location loads the ledger timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: LEDGER_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMBackend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini backend"))
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai backend"))
		}
	case BackendOllama:
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend))
	}

	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, errors.New("WORKER_COUNT must be at least 1"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, errors.New("QUEUE_SIZE must be at least 1"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LineEnabled reports whether both LINE credentials are set.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelAccessToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
