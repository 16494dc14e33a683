// ABOUTME: OpenAI client for embeddings, chat, transcription and speech
// ABOUTME: Every call is retried with backoff, bounded by a timeout, and audited
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/content-assistant/internal/audit"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultChatModel is the default model for answer generation
	DefaultChatModel = openai.GPT4o
	// DefaultEmbeddingModel is the default model for query embeddings
	DefaultEmbeddingModel = openai.LargeEmbedding3
	// DefaultTranscriptionModel is used for voice questions
	DefaultTranscriptionModel = openai.Whisper1
	// DefaultSpeechModel is used for spoken answers
	DefaultSpeechModel = openai.TTSModel1
	// DefaultVoice is the speech voice
	DefaultVoice = openai.VoiceAlloy
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	EmbeddingModel     openai.EmbeddingModel
	TranscriptionModel string
	SpeechModel        openai.SpeechModel
	Voice              openai.SpeechVoice
	Temperature        float32
	MaxRetries         int
	RetryDelay         time.Duration

	EmbeddingTimeout     time.Duration
	GenerationTimeout    time.Duration
	TranscriptionTimeout time.Duration
	SpeechTimeout        time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:               apiKey,
		ChatModel:            DefaultChatModel,
		EmbeddingModel:       DefaultEmbeddingModel,
		TranscriptionModel:   DefaultTranscriptionModel,
		SpeechModel:          DefaultSpeechModel,
		Voice:                DefaultVoice,
		Temperature:          0.1,
		MaxRetries:           3,
		RetryDelay:           2 * time.Second,
		EmbeddingTimeout:     15 * time.Second,
		GenerationTimeout:    60 * time.Second,
		TranscriptionTimeout: 60 * time.Second,
		SpeechTimeout:        60 * time.Second,
	}
}

// API is the subset of *openai.Client used here
type API interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Client wraps the OpenAI API with retries, timeouts and auditing
type Client struct {
	api      API
	config   ClientConfig
	recorder *audit.Recorder
	logger   logrus.FieldLogger
}

// NewClient creates a client talking to the OpenAI API
func NewClient(config *ClientConfig, recorder *audit.Recorder, logger logrus.FieldLogger) (*Client, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}
	return NewClientWithAPI(openai.NewClientWithConfig(apiConfig), config, recorder, logger), nil
}

// NewClientWithAPI creates a client over any API implementation
func NewClientWithAPI(api API, config *ClientConfig, recorder *audit.Recorder, logger logrus.FieldLogger) *Client {
	cfg := *DefaultConfig("")
	if config != nil {
		cfg = *config
	}
	return &Client{
		api:      api,
		config:   cfg,
		recorder: recorder,
		logger:   logging.OrDefault(logger, "llm"),
	}
}

// ChatModel returns the configured chat model name
func (c *Client) ChatModel() string { return c.config.ChatModel }

// EmbeddingModel returns the configured embedding model name
func (c *Client) EmbeddingModel() string { return string(c.config.EmbeddingModel) }

func (c *Client) policy() util.Policy {
	return util.Policy{
		MaxRetries: c.config.MaxRetries,
		BaseDelay:  c.config.RetryDelay,
		Retryable:  IsRetryable,
	}
}

// withTimeout bounds one attempt. Zero means no extra bound.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// errorMessage flattens err for the audit log
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
