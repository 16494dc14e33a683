// ABOUTME: Tests for text and audio reply rendering
// ABOUTME: Verifies source limits, link building, and the audio fallback
package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
)

func answerWithSources(n int) *models.AnswerResult {
	res := &models.AnswerResult{Answer: "Breathe slowly."}
	for i := 0; i < n; i++ {
		res.Sources = append(res.Sources, models.SourceDescriptor{
			Type:    models.ContentTypeVideo,
			Title:   string(rune('A' + i)),
			Locator: "video/" + string(rune('a'+i)),
		})
	}
	return res
}

func TestTextRenderer(t *testing.T) {
	tests := []struct {
		name      string
		renderer  TextRenderer
		res       *models.AnswerResult
		wantLines int
		wantLinks int
	}{
		{"no sources", TextRenderer{WebAppURL: "https://app"}, answerWithSources(0), 0, 0},
		{"under default limit", TextRenderer{WebAppURL: "https://app"}, answerWithSources(2), 2, 2},
		{"default limit is three", TextRenderer{WebAppURL: "https://app"}, answerWithSources(5), 3, 3},
		{"custom limit", TextRenderer{WebAppURL: "https://app", MaxSources: 1}, answerWithSources(5), 1, 1},
		{"no web app", TextRenderer{}, answerWithSources(2), 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := tt.renderer.Render(context.Background(), tt.res)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.HasPrefix(reply.Text, "Breathe slowly.") {
				t.Errorf("Text should start with the answer: %q", reply.Text)
			}
			lines := 0
			for _, l := range strings.Split(reply.Text, "\n") {
				if len(l) > 2 && l[0] >= '1' && l[0] <= '9' && l[1] == '.' {
					lines++
				}
			}
			if lines != tt.wantLines {
				t.Errorf("source lines = %d, want %d", lines, tt.wantLines)
			}
			if tt.wantLines == 0 && strings.Contains(reply.Text, "Sources:") {
				t.Error("Sources header without sources")
			}
			if len(reply.Links) != tt.wantLinks {
				t.Errorf("links = %d, want %d", len(reply.Links), tt.wantLinks)
			}
			if reply.HasAudio() {
				t.Error("text reply should not carry audio")
			}
		})
	}
}

func TestTextRenderer_URL(t *testing.T) {
	tests := []struct {
		base, locator, want string
	}{
		{"https://app.example.com", "vid-003", "https://app.example.com/vid-003"},
		{"https://app.example.com/", "/video/f1", "https://app.example.com/video/f1"},
		{"", "vid-003", ""},
		{"https://app.example.com", "", ""},
	}
	for _, tt := range tests {
		if got := (TextRenderer{WebAppURL: tt.base}).URL(tt.locator); got != tt.want {
			t.Errorf("URL(%q, %q) = %q, want %q", tt.base, tt.locator, got, tt.want)
		}
	}
}

type fakeSpeaker struct {
	audio []byte
	err   error
}

func (f fakeSpeaker) Speak(context.Context, string) ([]byte, error) {
	return f.audio, f.err
}

func TestAudioRenderer(t *testing.T) {
	res := answerWithSources(1)

	ok := AudioRenderer{Speaker: fakeSpeaker{audio: []byte("mp3")}, Logger: logging.Discard()}
	reply, err := ok.Render(context.Background(), res)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(reply.Audio) != "mp3" {
		t.Errorf("Audio = %q", reply.Audio)
	}
	if !strings.Contains(reply.Text, "Breathe slowly.") {
		t.Errorf("audio reply should keep the text: %q", reply.Text)
	}

	failing := AudioRenderer{Speaker: fakeSpeaker{err: errors.New("tts down")}, Logger: logging.Discard()}
	reply, err = failing.Render(context.Background(), res)
	if err != nil {
		t.Fatalf("Render() should fall back to text, got error %v", err)
	}
	if reply.HasAudio() {
		t.Error("fallback reply should have no audio")
	}
	want, _ := TextRenderer{}.Render(context.Background(), res)
	if reply.Text != want.Text {
		t.Errorf("fallback Text = %q, want %q", reply.Text, want.Text)
	}
}

func TestNew(t *testing.T) {
	if r, err := New(ModeText, TextRenderer{}, nil, nil); err != nil {
		t.Errorf("New(text) error = %v", err)
	} else if _, ok := r.(TextRenderer); !ok {
		t.Errorf("New(text) = %T", r)
	}

	if r, err := New(ModeAudio, TextRenderer{}, fakeSpeaker{}, nil); err != nil {
		t.Errorf("New(audio) error = %v", err)
	} else if _, ok := r.(AudioRenderer); !ok {
		t.Errorf("New(audio) = %T", r)
	}

	if _, err := New(ModeAudio, TextRenderer{}, nil, nil); err == nil {
		t.Error("New(audio) without speaker should fail")
	}
	if _, err := New("video", TextRenderer{}, nil, nil); err == nil {
		t.Error("New(unknown) should fail")
	}
}
