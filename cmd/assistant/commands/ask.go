// ABOUTME: Ask command answers one question from the command line
// ABOUTME: Accepts typed questions or a voice recording and prints or saves the reply
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harper/content-assistant/internal/audit"
	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/models"
	"github.com/spf13/cobra"
)

type askOptions struct {
	user     string
	voice    string
	audioOut string
}

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the content library",
		Long: `Answer a question using only the stored content library.

The question is embedded, matched against stored passages, and answered by
the chat model. When nothing relevant is stored the fixed not-covered reply
is printed instead. Use --voice to ask with a recorded audio file.`,
		Example: `  # Ask a typed question
  assistant ask "How do I prepare for a marathon?"

  # Ask with a voice recording and save the spoken reply
  REPLY_MODE=audio assistant ask --voice question.ogg --audio-out reply.mp3

  # Machine readable output
  assistant ask --format json "What is interval training?"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.voice == "" && len(args) == 0 {
				return fmt.Errorf("a question or --voice file is required")
			}
			if opts.voice != "" && len(args) > 0 {
				return fmt.Errorf("give either a question or --voice, not both")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&opts.user, "user", "cli", "User ID recorded in the audit log")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "Audio file to transcribe and answer")
	cmd.Flags().StringVar(&opts.audioOut, "audio-out", "", "Write a spoken reply to this file (audio reply mode)")

	return cmd
}

func runAsk(cmd *cobra.Command, opts *askOptions, question string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = audit.WithCaller(ctx, opts.user, "")

	var result *models.AnswerResult
	if opts.voice != "" {
		result, err = a.pipeline.AskVoice(ctx, opts.user, opts.voice)
	} else {
		result, err = a.pipeline.Ask(ctx, opts.user, question)
	}
	if err != nil {
		a.logger.WithField("error", err.Error()).Error("ask failed")
		return errors.New(core.UserMessage(err))
	}

	return printAnswer(ctx, cmd, a, result, opts.audioOut)
}

func printAnswer(ctx context.Context, cmd *cobra.Command, a *app, result *models.AnswerResult, audioOut string) error {
	out := cmd.OutOrStdout()

	reply, err := a.renderer.Render(ctx, result)
	if err != nil {
		return err
	}

	if reply.HasAudio() {
		if audioOut == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Spoken reply generated; use --audio-out to save it")
		} else if err := os.WriteFile(audioOut, reply.Audio, 0644); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}

	if resolveFormat(format, out) == formatJSON {
		type sourceOut struct {
			models.SourceDescriptor
			URL string `json:"url,omitempty"`
		}
		sources := make([]sourceOut, 0, len(result.Sources))
		for _, s := range result.Sources {
			sources = append(sources, sourceOut{SourceDescriptor: s, URL: a.links.URL(s.Locator)})
		}
		return printJSON(out, map[string]interface{}{
			"question":    result.Question,
			"answer":      result.Answer,
			"sources":     sources,
			"chunks_used": result.ChunksUsed,
		})
	}

	fmt.Fprintln(out, reply.Text)
	return nil
}
