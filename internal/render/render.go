// ABOUTME: Turns an answer into a reply for the user, as text or as speech
// ABOUTME: Audio falls back to text when speech synthesis fails
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultMaxSources is how many sources a reply lists
const DefaultMaxSources = 3

// Link points a displayed source at the web app
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Reply is a rendered answer. Audio is set only by a successful AudioRenderer.
type Reply struct {
	Text  string `json:"text"`
	Links []Link `json:"links,omitempty"`
	Audio []byte `json:"-"`
}

// HasAudio reports whether the reply carries speech
func (r Reply) HasAudio() bool { return len(r.Audio) > 0 }

// Renderer is implemented only by TextRenderer and AudioRenderer
type Renderer interface {
	Render(ctx context.Context, res *models.AnswerResult) (Reply, error)
	renderer()
}

// Speaker synthesizes speech
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// TextRenderer writes the answer followed by a numbered source list
type TextRenderer struct {
	// WebAppURL is the base for source links. Empty means no links.
	WebAppURL  string
	MaxSources int
}

func (TextRenderer) renderer() {}

// Render never fails
func (r TextRenderer) Render(_ context.Context, res *models.AnswerResult) (Reply, error) {
	var b strings.Builder
	b.WriteString(res.Answer)

	sources := res.Sources
	if limit := r.maxSources(); len(sources) > limit {
		sources = sources[:limit]
	}

	var links []Link
	if len(sources) > 0 {
		b.WriteString("\n\nSources:")
		for i, src := range sources {
			fmt.Fprintf(&b, "\n%d. %s %s", i+1, icon(src.Type), src.Title)
			if url := r.URL(src.Locator); url != "" {
				links = append(links, Link{Label: src.Title, URL: url})
			}
		}
	}

	return Reply{Text: b.String(), Links: links}, nil
}

// URL joins the web app base and a locator
func (r TextRenderer) URL(locator string) string {
	base := strings.TrimRight(r.WebAppURL, "/")
	locator = strings.TrimLeft(locator, "/")
	if base == "" || locator == "" {
		return ""
	}
	return base + "/" + locator
}

func (r TextRenderer) maxSources() int {
	if r.MaxSources <= 0 {
		return DefaultMaxSources
	}
	return r.MaxSources
}

func icon(ct models.ContentType) string {
	switch ct {
	case models.ContentTypeVideo:
		return "🎥"
	case models.ContentTypePodcast, models.ContentTypeAudio:
		return "🎧"
	default:
		return "📄"
	}
}

// AudioRenderer speaks the answer and keeps the text reply alongside
type AudioRenderer struct {
	Speaker Speaker
	Text    TextRenderer
	Logger  logrus.FieldLogger
}

func (AudioRenderer) renderer() {}

// Render returns the text reply with Audio set. If synthesis fails the
// plain text reply is returned instead.
func (r AudioRenderer) Render(ctx context.Context, res *models.AnswerResult) (Reply, error) {
	reply, err := r.Text.Render(ctx, res)
	if err != nil {
		return Reply{}, err
	}
	if r.Speaker == nil {
		return reply, nil
	}

	audio, err := r.Speaker.Speak(ctx, res.Answer)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, ctxErr
		}
		logging.OrDefault(r.Logger, "render").WithField("error", err.Error()).
			Warn("speech synthesis failed, replying with text")
		return reply, nil
	}
	reply.Audio = audio
	return reply, nil
}

// Mode names a renderer
type Mode string

const (
	ModeText  Mode = "text"
	ModeAudio Mode = "audio"
)

// New selects the renderer for mode. Audio requires a speaker.
func New(mode Mode, text TextRenderer, speaker Speaker, logger logrus.FieldLogger) (Renderer, error) {
	switch mode {
	case ModeText, "":
		return text, nil
	case ModeAudio:
		if speaker == nil {
			return nil, fmt.Errorf("audio replies need a speech client")
		}
		return AudioRenderer{Speaker: speaker, Text: text, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown reply mode %q", mode)
	}
}
