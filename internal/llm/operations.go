// ABOUTME: Embedding, chat, transcription and speech calls
// ABOUTME: One audit record per logical call, covering all of its attempts
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harper/content-assistant/internal/audit"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Completion is the outcome of one chat call
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Embed returns the embedding vector for text
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	timer := audit.StartTimer()
	var (
		vector []float64
		usage  openai.Usage
	)

	attempts, err := util.Do(ctx, c.policy(), func(ctx context.Context, _ int) error {
		actx, cancel := withTimeout(ctx, c.config.EmbeddingTimeout)
		defer cancel()

		resp, err := c.api.CreateEmbeddings(actx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.config.EmbeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return ErrEmptyResponse
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		vector = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			vector[i] = float64(v)
		}
		usage = resp.Usage
		return nil
	})

	c.record(ctx, models.AuditRecord{
		RequestType:  models.RequestTypeEmbedding,
		Model:        string(c.config.EmbeddingModel),
		InputText:    text,
		TokensPrompt: usage.PromptTokens,
		TokensTotal:  usage.TotalTokens,
		LatencyMs:    timer.ElapsedMs(),
		Success:      err == nil,
		ErrorMessage: errorMessage(err),
		Metadata:     map[string]interface{}{"attempts": attempts, "dimensions": len(vector)},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return vector, nil
}

// Complete sends a system and a user message and returns the reply
func (c *Client) Complete(ctx context.Context, system, user string) (Completion, error) {
	timer := audit.StartTimer()
	var out Completion

	attempts, err := util.Do(ctx, c.policy(), func(ctx context.Context, _ int) error {
		actx, cancel := withTimeout(ctx, c.config.GenerationTimeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(actx, openai.ChatCompletionRequest{
			Model: c.config.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: c.config.Temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return ErrEmptyResponse
		}

		out = Completion{
			Text:             resp.Choices[0].Message.Content,
			Model:            resp.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		return nil
	})

	model := out.Model
	if model == "" {
		model = c.config.ChatModel
	}
	c.record(ctx, models.AuditRecord{
		RequestType:      models.RequestTypeChat,
		Model:            model,
		InputText:        user,
		OutputText:       out.Text,
		TokensPrompt:     out.PromptTokens,
		TokensCompletion: out.CompletionTokens,
		TokensTotal:      out.TotalTokens,
		LatencyMs:        timer.ElapsedMs(),
		Success:          err == nil,
		ErrorMessage:     errorMessage(err),
		Metadata:         map[string]interface{}{"attempts": attempts},
	})

	if err != nil {
		return Completion{}, fmt.Errorf("failed to generate completion: %w", err)
	}
	return out, nil
}

// Transcribe converts a voice file to text
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	timer := audit.StartTimer()
	var text string

	attempts, err := util.Do(ctx, c.policy(), func(ctx context.Context, _ int) error {
		actx, cancel := withTimeout(ctx, c.config.TranscriptionTimeout)
		defer cancel()

		resp, err := c.api.CreateTranscription(actx, openai.AudioRequest{
			Model:    c.config.TranscriptionModel,
			FilePath: audioPath,
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(resp.Text) == "" {
			return ErrEmptyResponse
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})

	c.record(ctx, models.AuditRecord{
		RequestType:  models.RequestTypeTranscription,
		Model:        c.config.TranscriptionModel,
		InputText:    audioPath,
		OutputText:   text,
		LatencyMs:    timer.ElapsedMs(),
		Success:      err == nil,
		ErrorMessage: errorMessage(err),
		Metadata:     map[string]interface{}{"attempts": attempts},
	})

	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return text, nil
}

// Speak synthesizes text to MP3 audio
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	timer := audit.StartTimer()
	var audio []byte

	attempts, err := util.Do(ctx, c.policy(), func(ctx context.Context, _ int) error {
		actx, cancel := withTimeout(ctx, c.config.SpeechTimeout)
		defer cancel()

		resp, err := c.api.CreateSpeech(actx, openai.CreateSpeechRequest{
			Model:          c.config.SpeechModel,
			Input:          text,
			Voice:          c.config.Voice,
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			return err
		}
		defer func() { _ = resp.Close() }()

		data, err := io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("failed to read speech: %w", err)
		}
		if len(data) == 0 {
			return ErrEmptyResponse
		}
		audio = data
		return nil
	})

	c.record(ctx, models.AuditRecord{
		RequestType:  models.RequestTypeSpeech,
		Model:        string(c.config.SpeechModel),
		InputText:    text,
		LatencyMs:    timer.ElapsedMs(),
		Success:      err == nil,
		ErrorMessage: errorMessage(err),
		Metadata:     map[string]interface{}{"attempts": attempts, "bytes": len(audio)},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return audio, nil
}

func (c *Client) record(ctx context.Context, rec models.AuditRecord) {
	if !rec.Success {
		c.logger.WithFields(logrus.Fields{
			"request_type": rec.RequestType,
			"model":        rec.Model,
			"latency_ms":   rec.LatencyMs,
			"error":        rec.ErrorMessage,
		}).Warn("model call failed")
	}
	// failures are already logged by the recorder
	_ = c.recorder.Record(ctx, rec)
}
