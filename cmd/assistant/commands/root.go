// ABOUTME: Root command, global flags, and per-invocation setup
// ABOUTME: Loads configuration and configures logging before any subcommand runs
package commands

import (
	"fmt"
	"strings"

	"github.com/harper/content-assistant/internal/config"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	format     string
	configPath string

	// cfg is loaded in the root PersistentPreRunE
	cfg *config.Config
)

const banner = `
 ▄▀█ █▀ █▀ █ █▀ ▀█▀ ▄▀█ █▄ █ ▀█▀
 █▀█ ▄█ ▄█ █ ▄█  █  █▀█ █ ▀█  █
`

// NewRootCmd creates the root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Answer questions from a curated content library",
		Long: banner + `
Answers questions using only a curated library of articles, videos and
podcasts. Questions are embedded, matched against stored passages, and
answered by a language model that must stay inside the retrieved context.
Questions the library does not cover get a fixed not-covered reply.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&format, "format", "auto", "Output format: auto, table, json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default: $ASSISTANT_CONFIG)")

	cmd.AddCommand(
		NewAskCmd(),
		NewMCPCmd(),
		NewServeCmd(),
		NewLoadCmd(),
		NewSourcesCmd(),
		NewAuditCmd(),
		NewEvalCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if _, err := parseFormat(format); err != nil {
		return err
	}

	var err error
	if cfg, err = config.LoadPath(configPath); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.Init(level, logging.Format(strings.ToLower(cfg.LogFormat)))
}
