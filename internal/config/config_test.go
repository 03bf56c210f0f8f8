package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_PATH", "LLM_BACKEND", "LLM_MODEL", "LLM_TIMEOUT", "LEDGER_TIMEZONE", "WORKER_COUNT", "QUEUE_SIZE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LLMBackend != BackendGemini {
		t.Errorf("LLMBackend = %q, want gemini", cfg.LLMBackend)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
	if cfg.Timezone != "Asia/Taipei" {
		t.Errorf("Timezone = %q, want Asia/Taipei", cfg.Timezone)
	}
	if cfg.WorkerCount != 2 || cfg.QueueSize != 100 {
		t.Errorf("WorkerCount/QueueSize = %d/%d, want 2/100", cfg.WorkerCount, cfg.QueueSize)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "LLM_TIMEOUT", "soon"},
		{"bad worker count", "WORKER_COUNT", "two"},
		{"bad queue size", "QUEUE_SIZE", "1e3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_Model(t *testing.T) {
	tests := []struct {
		backend string
		model   string
		want    string
	}{
		{BackendGemini, "", "gemini-2.5-flash"},
		{BackendOpenAI, "", "gpt-4o-mini"},
		{BackendOllama, "", "llama3.2"},
		{BackendOllama, "qwen2.5", "qwen2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.want, func(t *testing.T) {
			c := &Config{LLMBackend: tt.backend, LLMModel: tt.model}
			if got := c.Model(); got != tt.want {
				t.Errorf("Model() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			LLMBackend:   BackendGemini,
			GeminiAPIKey: "key",
			LLMTimeout:   time.Second,
			WorkerCount:  1,
			QueueSize:    1,
			Timezone:     "UTC",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "gemini without key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, wantErr: "GEMINI_API_KEY"},
		{name: "openai without key", mutate: func(c *Config) { c.LLMBackend = BackendOpenAI }, wantErr: "OPENAI_API_KEY"},
		{name: "openai compatible server", mutate: func(c *Config) { c.LLMBackend = BackendOpenAI; c.OpenAIBaseURL = "http://localhost:8000/v1" }},
		{name: "ollama", mutate: func(c *Config) { c.LLMBackend = BackendOllama; c.OllamaURL = "http://localhost:11434" }},
		{name: "unknown backend", mutate: func(c *Config) { c.LLMBackend = "bard" }, wantErr: "unknown LLM_BACKEND"},
		{name: "zero timeout", mutate: func(c *Config) { c.LLMTimeout = 0 }, wantErr: "LLM_TIMEOUT"},
		{name: "no workers", mutate: func(c *Config) { c.WorkerCount = 0 }, wantErr: "WORKER_COUNT"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "LEDGER_TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9999\nLLM_BACKEND=ollama\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("PORT", "7000")
	t.Setenv("LLM_BACKEND", "")
	os.Unsetenv("LLM_BACKEND")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want environment value 7000", cfg.Port)
	}
	if cfg.LLMBackend != BackendOllama {
		t.Errorf("LLMBackend = %q, want .env value ollama", cfg.LLMBackend)
	}
}
