// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, TOML file layering, environment overrides, and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/content-assistant/internal/prompt"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %s, want gpt-4o", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-large", cfg.EmbeddingModel)
	}
	if cfg.SimilarityThreshold != 0.5 {
		t.Errorf("SimilarityThreshold = %f, want 0.5", cfg.SimilarityThreshold)
	}
	if cfg.SearchLimit != 5 {
		t.Errorf("SearchLimit = %d, want 5", cfg.SearchLimit)
	}
	if cfg.EmbeddingDimension != 3072 {
		t.Errorf("EmbeddingDimension = %d, want 3072", cfg.EmbeddingDimension)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
	if cfg.GenerationTimeout != 3*time.Minute {
		t.Errorf("GenerationTimeout = %v, want 3m", cfg.GenerationTimeout)
	}
	if cfg.MaxDisplaySources != 3 {
		t.Errorf("MaxDisplaySources = %d, want 3", cfg.MaxDisplaySources)
	}
	if cfg.Sentinel != prompt.DefaultSentinel {
		t.Errorf("Sentinel = %q", cfg.Sentinel)
	}
	if cfg.ReplyMode != ReplyText {
		t.Errorf("ReplyMode = %s, want text", cfg.ReplyMode)
	}
	if cfg.CharmEnabled {
		t.Error("CharmEnabled = true, want false")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("CHAT_MODEL", "gpt-4o-mini")
	t.Setenv("SIMILARITY_THRESHOLD", "0.72")
	t.Setenv("SEARCH_LIMIT", "8")
	t.Setenv("EMBEDDING_DIMENSION", "1536")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("ANSWER_LANGUAGE", "Russian")
	t.Setenv("WEBAPP_URL", "https://app.example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CHARM_ENABLED", "true")
	t.Setenv("REPLY_MODE", "audio")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAIKey != "test-key" {
		t.Errorf("OpenAIKey = %s, want test-key", cfg.OpenAIKey)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s", cfg.ChatModel)
	}
	if cfg.SimilarityThreshold != 0.72 {
		t.Errorf("SimilarityThreshold = %f, want 0.72", cfg.SimilarityThreshold)
	}
	if cfg.SearchLimit != 8 {
		t.Errorf("SearchLimit = %d, want 8", cfg.SearchLimit)
	}
	if cfg.EmbeddingDimension != 1536 {
		t.Errorf("EmbeddingDimension = %d, want 1536", cfg.EmbeddingDimension)
	}
	if cfg.GenerationTimeout != 90*time.Second {
		t.Errorf("GenerationTimeout = %v, want 90s", cfg.GenerationTimeout)
	}
	if cfg.Policy().Language != "Russian" {
		t.Errorf("Policy().Language = %s", cfg.Policy().Language)
	}
	if cfg.WebAppURL != "https://app.example.com" {
		t.Errorf("WebAppURL = %s", cfg.WebAppURL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %s", cfg.RedisAddr)
	}
	if !cfg.CharmEnabled {
		t.Error("CharmEnabled = false, want true")
	}
	if cfg.ReplyMode != ReplyAudio {
		t.Errorf("ReplyMode = %s, want audio", cfg.ReplyMode)
	}
}

func TestLoadFile_TOMLThenEnv(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "assistant.toml")
	contents := `
[openai]
chat_model = "gpt-4.1"
max_retries = 5

[timeouts]
generation_seconds = 120

[search]
similarity_threshold = 0.6
limit = 7

[answer]
footer = "More in the app."

[charm]
enabled = true
db_name = "assistant-test"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SEARCH_LIMIT", "9")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.ChatModel != "gpt-4.1" {
		t.Errorf("ChatModel = %s, want gpt-4.1", cfg.ChatModel)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.GenerationTimeout != 2*time.Minute {
		t.Errorf("GenerationTimeout = %v, want 2m", cfg.GenerationTimeout)
	}
	if cfg.SimilarityThreshold != 0.6 {
		t.Errorf("SimilarityThreshold = %f, want 0.6", cfg.SimilarityThreshold)
	}
	if cfg.SearchLimit != 9 {
		t.Errorf("SearchLimit = %d, want env value 9", cfg.SearchLimit)
	}
	if cfg.AnswerFooter != "More in the app." {
		t.Errorf("AnswerFooter = %q", cfg.AnswerFooter)
	}
	if !cfg.CharmEnabled || cfg.CharmDBName != "assistant-test" {
		t.Errorf("charm = %v/%s", cfg.CharmEnabled, cfg.CharmDBName)
	}
	// untouched values keep defaults
	if cfg.EmbeddingDimension != 3072 {
		t.Errorf("EmbeddingDimension = %d, want default 3072", cfg.EmbeddingDimension)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	os.Clearenv()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[search\nlimit = "), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envKey  string
		envVal  string
		wantErr string
	}{
		{"threshold too high", "SIMILARITY_THRESHOLD", "1.5", "SIMILARITY_THRESHOLD"},
		{"threshold too low", "SIMILARITY_THRESHOLD", "-1.5", "SIMILARITY_THRESHOLD"},
		{"zero limit", "SEARCH_LIMIT", "0", "SEARCH_LIMIT"},
		{"negative dimension", "EMBEDDING_DIMENSION", "-1", "EMBEDDING_DIMENSION"},
		{"retries too high", "OPENAI_MAX_RETRIES", "11", "OPENAI_MAX_RETRIES"},
		{"zero timeout", "SEARCH_TIMEOUT", "0s", "SEARCH_TIMEOUT"},
		{"unknown reply mode", "REPLY_MODE", "video", "REPLY_MODE"},
		{"unknown log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tt.envKey, tt.envVal)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %s=%s", tt.envKey, tt.envVal)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MalformedNumbersAreErrors(t *testing.T) {
	tests := []struct {
		envKey string
		envVal string
	}{
		{"SIMILARITY_THRESHOLD", "0,5"},
		{"SIMILARITY_THRESHOLD", "high"},
		{"SEARCH_LIMIT", "many"},
		{"EMBEDDING_DIMENSION", "3072.0"},
		{"GENERATION_TIMEOUT", "soon"},
		{"GENERATION_TIMEOUT", "90"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey+"="+tt.envVal, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tt.envKey, tt.envVal)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should reject %s=%q", tt.envKey, tt.envVal)
			}
			if !strings.Contains(err.Error(), tt.envKey) || !strings.Contains(err.Error(), tt.envVal) {
				t.Errorf("error = %v, want mention of %s and %q", err, tt.envKey, tt.envVal)
			}
		})
	}
}

func TestLoad_NumbersTolerateSurroundingSpace(t *testing.T) {
	os.Clearenv()
	t.Setenv("SIMILARITY_THRESHOLD", " 0.65 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SimilarityThreshold != 0.65 {
		t.Errorf("SimilarityThreshold = %f, want 0.65", cfg.SimilarityThreshold)
	}
}

func TestLLMConfig(t *testing.T) {
	cfg := Default()
	cfg.OpenAIKey = "k"
	cfg.Temperature = 0.3

	lc := cfg.LLM()
	if lc.APIKey != "k" {
		t.Errorf("APIKey = %s", lc.APIKey)
	}
	if string(lc.EmbeddingModel) != cfg.EmbeddingModel {
		t.Errorf("EmbeddingModel = %s", lc.EmbeddingModel)
	}
	if lc.Temperature < 0.29 || lc.Temperature > 0.31 {
		t.Errorf("Temperature = %f", lc.Temperature)
	}
	if lc.GenerationTimeout != cfg.GenerationTimeout {
		t.Errorf("GenerationTimeout = %v", lc.GenerationTimeout)
	}
}

func TestLoadPath_ExplicitPathWins(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.toml")
	flagFile := filepath.Join(dir, "flag.toml")
	if err := os.WriteFile(envFile, []byte("[search]\nlimit = 3\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(flagFile, []byte("[search]\nlimit = 4\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ASSISTANT_CONFIG", envFile)

	cfg, err := LoadPath(flagFile)
	if err != nil {
		t.Fatalf("LoadPath() failed: %v", err)
	}
	if cfg.SearchLimit != 4 {
		t.Errorf("SearchLimit = %d, want 4 from explicit path", cfg.SearchLimit)
	}

	cfg, err = LoadPath("")
	if err != nil {
		t.Fatalf("LoadPath(\"\") failed: %v", err)
	}
	if cfg.SearchLimit != 3 {
		t.Errorf("SearchLimit = %d, want 3 from ASSISTANT_CONFIG", cfg.SearchLimit)
	}
}
