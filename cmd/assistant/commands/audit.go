// ABOUTME: Audit command reviews logged model calls
// ABOUTME: Lists recent calls, summarizes cost and latency, and syncs the Charm copy
package commands

import (
	"fmt"
	"strconv"

	"github.com/harper/content-assistant/internal/charm"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Review logged model calls",
		Long: `Review the audit log of embedding, chat, transcription and speech calls.

Every model call is written to the local database. When CHARM_ENABLED is
set a copy is also kept in Charm KV and synced across machines.`,
	}
	cmd.AddCommand(newAuditListCmd(), newAuditSummaryCmd(), newAuditSyncCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		limit    int
		kind     string
		user     string
		failed   bool
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent model calls, newest first",
		Example: `  assistant audit list --type chat --limit 20
  assistant audit list --failed
  assistant audit list --remote`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(limit, "limit"); err != nil {
				return err
			}
			rt := models.RequestType(kind)
			switch rt {
			case "", models.RequestTypeEmbedding, models.RequestTypeChat, models.RequestTypeTranscription, models.RequestTypeSpeech:
			default:
				return fmt.Errorf("unknown request type %q", kind)
			}

			var records []models.AuditRecord
			if remote {
				client, err := requireCharm()
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				if records, err = charm.NewAuditSink(client).Recent(limit); err != nil {
					return err
				}
			} else {
				db, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				records, err = sqlite.NewAuditStore(db).Recent(cmd.Context(), sqlite.AuditFilter{
					RequestType: rt,
					UserID:      user,
					FailedOnly:  failed,
					Limit:       limit,
				})
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if resolveFormat(format, out) == formatJSON {
				if records == nil {
					records = []models.AuditRecord{}
				}
				return printJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No audit records")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				status := "ok"
				if !r.Success {
					status = truncate(r.ErrorMessage, 30)
				}
				rows = append(rows, []string{
					formatTime(r.CreatedAt),
					string(r.RequestType),
					r.Model,
					r.UserID,
					strconv.FormatInt(r.LatencyMs, 10),
					strconv.Itoa(r.TokensTotal),
					status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Type", "Model", "User", "Latency ms", "Tokens", "Status"},
				rows, 4, 5))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum records to show")
	cmd.Flags().StringVar(&kind, "type", "", "Filter by type: embedding, chat, transcription, speech")
	cmd.Flags().StringVar(&user, "user", "", "Filter by user ID")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only failed calls")
	cmd.Flags().BoolVar(&remote, "remote", false, "Read from Charm KV instead of the local database")
	return cmd
}

func newAuditSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Calls, failures, tokens and latency per request type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			summary, err := sqlite.NewAuditStore(db).Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resolveFormat(format, out) == formatJSON {
				return printJSON(out, summary)
			}

			rows := make([][]string, 0, len(summary))
			for _, s := range summary {
				rows = append(rows, []string{
					string(s.RequestType),
					strconv.Itoa(s.Calls),
					strconv.Itoa(s.Failures),
					strconv.Itoa(s.TotalTokens),
					strconv.FormatFloat(s.AvgLatencyMs, 'f', 0, 64),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Type", "Calls", "Failures", "Tokens", "Avg latency ms"},
				rows, 1, 2, 3, 4))
			return nil
		},
	}
}

func newAuditSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the Charm copy of the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := requireCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			keys, err := client.ListKeys(charm.AuditPrefix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d audit records\n", len(keys))
			return nil
		},
	}
}

func requireCharm() (*charm.Client, error) {
	if !cfg.CharmEnabled {
		return nil, fmt.Errorf("charm is disabled; set CHARM_ENABLED=true")
	}
	return openCharm(cfg)
}
