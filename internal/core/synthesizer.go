// ABOUTME: Generates the final answer from the assembled context
// ABOUTME: Enforces the answer policy and the exact not-covered sentinel
package core

import (
	"context"
	"strings"
	"time"

	"github.com/harper/content-assistant/internal/llm"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/prompt"
	"github.com/sirupsen/logrus"
)

// Completer sends a system and user message to a chat model
type Completer interface {
	Complete(ctx context.Context, system, user string) (llm.Completion, error)
}

// SynthesizerOptions configures a Synthesizer. Zero values take defaults.
type SynthesizerOptions struct {
	Policy   prompt.Policy
	Template *prompt.Template
	// Footer is appended to real answers, never to the sentinel
	Footer string
	// Timeout bounds the whole generation including retries
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// Synthesizer turns context and question into an answer
type Synthesizer struct {
	completer Completer
	policy    prompt.Policy
	template  *prompt.Template
	footer    string
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// NewSynthesizer creates a Synthesizer
func NewSynthesizer(c Completer, opts SynthesizerOptions) *Synthesizer {
	tmpl := opts.Template
	if tmpl == nil {
		tmpl = prompt.MustDefault()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Synthesizer{
		completer: c,
		policy:    opts.Policy.Normalize(),
		template:  tmpl,
		footer:    strings.TrimSpace(opts.Footer),
		timeout:   timeout,
		logger:    logging.OrDefault(opts.Logger, "synthesizer"),
	}
}

// Sentinel returns the exact not-covered reply
func (s *Synthesizer) Sentinel() string {
	return s.policy.Sentinel
}

// Synthesize returns an answer grounded in contextText.
//
// An empty context yields the sentinel without calling the model. The
// request can be cancelled until the model call starts; after that the call
// runs to completion (so its outcome is audited) and the answer is dropped
// if ctx was cancelled meanwhile.
func (s *Synthesizer) Synthesize(ctx context.Context, contextText, question string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return s.policy.Sentinel, nil
	}

	user, err := s.template.Render(prompt.Data{
		Context:  contextText,
		Question: question,
		Language: s.policy.Language,
		Sentinel: s.policy.Sentinel,
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	completion, err := s.completer.Complete(callCtx, s.policy.SystemMessage(), user)

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.WithField("error", ctxErr.Error()).Info("caller went away, discarding generated answer")
		return "", ctxErr
	}
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	answer := strings.TrimSpace(completion.Text)
	if answer == "" {
		return "", &GenerationError{Err: ErrEmptyAnswer}
	}
	if s.IsSentinel(answer) {
		return s.policy.Sentinel, nil
	}
	if s.footer != "" {
		answer += "\n\n" + s.footer
	}
	return answer, nil
}

// sentinelTrim are the characters a model wraps around a literal reply
const sentinelTrim = " \t\r\n\"'`«»“”„"

// IsSentinel reports whether text is the sentinel apart from surrounding
// whitespace and quotes
func (s *Synthesizer) IsSentinel(text string) bool {
	return strings.Trim(text, sentinelTrim) == strings.Trim(s.policy.Sentinel, sentinelTrim)
}
