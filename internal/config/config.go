// ABOUTME: Centralized configuration for the content assistant
// ABOUTME: Defaults, then an optional TOML file, then environment variables, then validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harper/content-assistant/internal/llm"
	"github.com/harper/content-assistant/internal/prompt"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	openai "github.com/sashabaranov/go-openai"
)

// ReplyMode selects how answers are delivered
type ReplyMode string

const (
	ReplyText  ReplyMode = "text"
	ReplyAudio ReplyMode = "audio"
)

// Config holds all configuration for the assistant
type Config struct {
	// OpenAI settings
	OpenAIKey          string
	OpenAIBaseURL      string
	ChatModel          string
	EmbeddingModel     string
	TranscriptionModel string
	SpeechModel        string
	Voice              string
	Temperature        float64
	MaxRetries         int
	RetryDelay         time.Duration

	// Timeouts for each external call
	EmbeddingTimeout     time.Duration
	SearchTimeout        time.Duration
	GenerationTimeout    time.Duration
	TranscriptionTimeout time.Duration
	SpeechTimeout        time.Duration

	// Retrieval settings
	SimilarityThreshold float64
	SearchLimit         int
	EmbeddingDimension  int

	// Answer policy
	PromptTemplateFile string
	AnswerLanguage     string
	Sentinel           string
	AnswerFooter       string

	// Sources
	LookupDir         string
	WebAppURL         string
	MaxDisplaySources int
	ReplyMode         ReplyMode

	// Storage
	DBPath string

	// Embedding cache (disabled when RedisAddr is empty)
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration

	// Charm audit sink
	CharmEnabled bool
	CharmHost    string
	CharmDBName  string
	AutoSync     bool

	// Logging and serving
	LogLevel  string
	LogFormat string
	HTTPAddr  string

	// envErrs holds environment values that failed to parse
	envErrs []error
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		ChatModel:            llm.DefaultChatModel,
		EmbeddingModel:       string(llm.DefaultEmbeddingModel),
		TranscriptionModel:   llm.DefaultTranscriptionModel,
		SpeechModel:          string(llm.DefaultSpeechModel),
		Voice:                string(llm.DefaultVoice),
		Temperature:          0.1,
		MaxRetries:           3,
		RetryDelay:           2 * time.Second,
		EmbeddingTimeout:     15 * time.Second,
		SearchTimeout:        10 * time.Second,
		GenerationTimeout:    3 * time.Minute,
		TranscriptionTimeout: 60 * time.Second,
		SpeechTimeout:        60 * time.Second,
		SimilarityThreshold:  0.5,
		SearchLimit:          5,
		EmbeddingDimension:   3072,
		AnswerLanguage:       prompt.DefaultLanguage,
		Sentinel:             prompt.DefaultSentinel,
		MaxDisplaySources:    3,
		ReplyMode:            ReplyText,
		EmbeddingCacheTTL:    24 * time.Hour,
		CharmHost:            "charm.2389.dev",
		CharmDBName:          "content-assistant",
		AutoSync:             true,
		LogLevel:             "info",
		LogFormat:            "json",
		HTTPAddr:             ":8080",
	}
}

// fileConfig is the TOML layout. Durations are whole seconds.
type fileConfig struct {
	OpenAI struct {
		BaseURL            *string  `toml:"base_url"`
		ChatModel          *string  `toml:"chat_model"`
		EmbeddingModel     *string  `toml:"embedding_model"`
		TranscriptionModel *string  `toml:"transcription_model"`
		SpeechModel        *string  `toml:"speech_model"`
		Voice              *string  `toml:"voice"`
		Temperature        *float64 `toml:"temperature"`
		MaxRetries         *int     `toml:"max_retries"`
		RetryDelaySeconds  *int     `toml:"retry_delay_seconds"`
	} `toml:"openai"`
	Timeouts struct {
		Embedding     *int `toml:"embedding_seconds"`
		Search        *int `toml:"search_seconds"`
		Generation    *int `toml:"generation_seconds"`
		Transcription *int `toml:"transcription_seconds"`
		Speech        *int `toml:"speech_seconds"`
	} `toml:"timeouts"`
	Search struct {
		Threshold *float64 `toml:"similarity_threshold"`
		Limit     *int     `toml:"limit"`
		Dimension *int     `toml:"embedding_dimension"`
	} `toml:"search"`
	Answer struct {
		TemplateFile *string `toml:"template_file"`
		Language     *string `toml:"language"`
		Sentinel     *string `toml:"sentinel"`
		Footer       *string `toml:"footer"`
		ReplyMode    *string `toml:"reply_mode"`
	} `toml:"answer"`
	Sources struct {
		LookupDir  *string `toml:"lookup_dir"`
		WebAppURL  *string `toml:"webapp_url"`
		MaxDisplay *int    `toml:"max_display"`
	} `toml:"sources"`
	Storage struct {
		DBPath *string `toml:"db_path"`
	} `toml:"storage"`
	Redis struct {
		Addr       *string `toml:"addr"`
		Password   *string `toml:"password"`
		DB         *int    `toml:"db"`
		TTLSeconds *int    `toml:"ttl_seconds"`
	} `toml:"redis"`
	Charm struct {
		Enabled  *bool   `toml:"enabled"`
		Host     *string `toml:"host"`
		DBName   *string `toml:"db_name"`
		AutoSync *bool   `toml:"auto_sync"`
	} `toml:"charm"`
	Log struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`
	HTTP struct {
		Addr *string `toml:"addr"`
	} `toml:"http"`
}

// Load reads .env, the TOML file named by ASSISTANT_CONFIG (if any), and
// environment variables, in increasing precedence
func Load() (*Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit TOML path that wins over ASSISTANT_CONFIG
func LoadPath(path string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()
	if path == "" {
		path = os.Getenv("ASSISTANT_CONFIG")
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit TOML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		fc.apply(&cfg)
	}

	cfg.applyEnv()
	return &cfg, cfg.Validate()
}

func (fc *fileConfig) apply(c *Config) {
	setString(&c.OpenAIBaseURL, fc.OpenAI.BaseURL)
	setString(&c.ChatModel, fc.OpenAI.ChatModel)
	setString(&c.EmbeddingModel, fc.OpenAI.EmbeddingModel)
	setString(&c.TranscriptionModel, fc.OpenAI.TranscriptionModel)
	setString(&c.SpeechModel, fc.OpenAI.SpeechModel)
	setString(&c.Voice, fc.OpenAI.Voice)
	if fc.OpenAI.Temperature != nil {
		c.Temperature = *fc.OpenAI.Temperature
	}
	setInt(&c.MaxRetries, fc.OpenAI.MaxRetries)
	setSeconds(&c.RetryDelay, fc.OpenAI.RetryDelaySeconds)

	setSeconds(&c.EmbeddingTimeout, fc.Timeouts.Embedding)
	setSeconds(&c.SearchTimeout, fc.Timeouts.Search)
	setSeconds(&c.GenerationTimeout, fc.Timeouts.Generation)
	setSeconds(&c.TranscriptionTimeout, fc.Timeouts.Transcription)
	setSeconds(&c.SpeechTimeout, fc.Timeouts.Speech)

	if fc.Search.Threshold != nil {
		c.SimilarityThreshold = *fc.Search.Threshold
	}
	setInt(&c.SearchLimit, fc.Search.Limit)
	setInt(&c.EmbeddingDimension, fc.Search.Dimension)

	setString(&c.PromptTemplateFile, fc.Answer.TemplateFile)
	setString(&c.AnswerLanguage, fc.Answer.Language)
	setString(&c.Sentinel, fc.Answer.Sentinel)
	setString(&c.AnswerFooter, fc.Answer.Footer)
	if fc.Answer.ReplyMode != nil {
		c.ReplyMode = ReplyMode(*fc.Answer.ReplyMode)
	}

	setString(&c.LookupDir, fc.Sources.LookupDir)
	setString(&c.WebAppURL, fc.Sources.WebAppURL)
	setInt(&c.MaxDisplaySources, fc.Sources.MaxDisplay)

	setString(&c.DBPath, fc.Storage.DBPath)

	setString(&c.RedisAddr, fc.Redis.Addr)
	setString(&c.RedisPassword, fc.Redis.Password)
	setInt(&c.RedisDB, fc.Redis.DB)
	setSeconds(&c.EmbeddingCacheTTL, fc.Redis.TTLSeconds)

	if fc.Charm.Enabled != nil {
		c.CharmEnabled = *fc.Charm.Enabled
	}
	setString(&c.CharmHost, fc.Charm.Host)
	setString(&c.CharmDBName, fc.Charm.DBName)
	if fc.Charm.AutoSync != nil {
		c.AutoSync = *fc.Charm.AutoSync
	}

	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.HTTPAddr, fc.HTTP.Addr)
}

func (c *Config) applyEnv() {
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("EMBEDDING_MODEL", c.EmbeddingModel)
	c.TranscriptionModel = getEnv("TRANSCRIPTION_MODEL", c.TranscriptionModel)
	c.SpeechModel = getEnv("SPEECH_MODEL", c.SpeechModel)
	c.Voice = getEnv("SPEECH_VOICE", c.Voice)
	c.Temperature = c.envFloat("CHAT_TEMPERATURE", c.Temperature)
	c.MaxRetries = c.envInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = c.envDuration("OPENAI_RETRY_DELAY", c.RetryDelay)

	c.EmbeddingTimeout = c.envDuration("EMBEDDING_TIMEOUT", c.EmbeddingTimeout)
	c.SearchTimeout = c.envDuration("SEARCH_TIMEOUT", c.SearchTimeout)
	c.GenerationTimeout = c.envDuration("GENERATION_TIMEOUT", c.GenerationTimeout)
	c.TranscriptionTimeout = c.envDuration("TRANSCRIPTION_TIMEOUT", c.TranscriptionTimeout)
	c.SpeechTimeout = c.envDuration("SPEECH_TIMEOUT", c.SpeechTimeout)

	c.SimilarityThreshold = c.envFloat("SIMILARITY_THRESHOLD", c.SimilarityThreshold)
	c.SearchLimit = c.envInt("SEARCH_LIMIT", c.SearchLimit)
	c.EmbeddingDimension = c.envInt("EMBEDDING_DIMENSION", c.EmbeddingDimension)

	c.PromptTemplateFile = getEnv("PROMPT_TEMPLATE_FILE", c.PromptTemplateFile)
	c.AnswerLanguage = getEnv("ANSWER_LANGUAGE", c.AnswerLanguage)
	c.Sentinel = getEnv("SENTINEL", c.Sentinel)
	c.AnswerFooter = getEnv("ANSWER_FOOTER", c.AnswerFooter)
	c.ReplyMode = ReplyMode(getEnv("REPLY_MODE", string(c.ReplyMode)))

	c.LookupDir = getEnv("LOOKUP_DIR", c.LookupDir)
	c.WebAppURL = getEnv("WEBAPP_URL", c.WebAppURL)
	c.MaxDisplaySources = c.envInt("MAX_DISPLAY_SOURCES", c.MaxDisplaySources)

	c.DBPath = getEnv("ASSISTANT_DB", c.DBPath)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = c.envInt("REDIS_DB", c.RedisDB)
	c.EmbeddingCacheTTL = c.envDuration("EMBEDDING_CACHE_TTL", c.EmbeddingCacheTTL)

	c.CharmEnabled = getEnvBool("CHARM_ENABLED", c.CharmEnabled)
	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)
	c.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.AutoSync)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
}

// Validate checks ranges. It does not require an API key; commands that
// call the model check that themselves.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be in [-1, 1], got %f", c.SimilarityThreshold))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("CHAT_TEMPERATURE must be 0-2, got %f", c.Temperature))
	}
	if c.MaxDisplaySources <= 0 {
		errs = append(errs, fmt.Errorf("MAX_DISPLAY_SOURCES must be positive, got %d", c.MaxDisplaySources))
	}
	for name, d := range map[string]time.Duration{
		"EMBEDDING_TIMEOUT":     c.EmbeddingTimeout,
		"SEARCH_TIMEOUT":        c.SearchTimeout,
		"GENERATION_TIMEOUT":    c.GenerationTimeout,
		"TRANSCRIPTION_TIMEOUT": c.TranscriptionTimeout,
		"SPEECH_TIMEOUT":        c.SpeechTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	switch c.ReplyMode {
	case ReplyText, ReplyAudio:
	default:
		errs = append(errs, fmt.Errorf("REPLY_MODE must be text or audio, got %q", c.ReplyMode))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// LLM returns the OpenAI client configuration
func (c *Config) LLM() *llm.ClientConfig {
	return &llm.ClientConfig{
		APIKey:               c.OpenAIKey,
		BaseURL:              c.OpenAIBaseURL,
		ChatModel:            c.ChatModel,
		EmbeddingModel:       openai.EmbeddingModel(c.EmbeddingModel),
		TranscriptionModel:   c.TranscriptionModel,
		SpeechModel:          openai.SpeechModel(c.SpeechModel),
		Voice:                openai.SpeechVoice(c.Voice),
		Temperature:          float32(c.Temperature),
		MaxRetries:           c.MaxRetries,
		RetryDelay:           c.RetryDelay,
		EmbeddingTimeout:     c.EmbeddingTimeout,
		GenerationTimeout:    c.GenerationTimeout,
		TranscriptionTimeout: c.TranscriptionTimeout,
		SpeechTimeout:        c.SpeechTimeout,
	}
}

// Policy returns the answer policy
func (c *Config) Policy() prompt.Policy {
	return prompt.Policy{Language: c.AnswerLanguage, Sentinel: c.Sentinel}.Normalize()
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func (c *Config) envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return defaultVal
	}
	return i
}

func (c *Config) envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s must be a number, got %q", key, v))
		return defaultVal
	}
	return f
}

func (c *Config) envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s must be a duration like 30s, got %q", key, v))
		return defaultVal
	}
	return d
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Second
	}
}
