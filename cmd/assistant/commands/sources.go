// ABOUTME: Sources command inspects stored content and curated source tables
// ABOUTME: Shows per-type counts and looks up the curated description of one source
package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/render"
	"github.com/harper/content-assistant/internal/resolver"
	"github.com/harper/content-assistant/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

// NewSourcesCmd creates the sources command
func NewSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect stored content and source tables",
	}
	cmd.AddCommand(newSourcesStatsCmd(), newSourcesDescribeCmd())
	return cmd
}

type typeStats struct {
	Type    models.ContentType `json:"type"`
	Chunks  int                `json:"chunks"`
	Curated int                `json:"curated_entries"`
}

func newSourcesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count stored chunks and curated entries per content type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store := sqlite.NewChunkStore(db)
			counts, err := store.CountByType(cmd.Context())
			if err != nil {
				return err
			}
			dims, err := store.Dimensions(cmd.Context())
			if err != nil {
				return err
			}
			tables, err := loadTables()
			if err != nil {
				return err
			}

			types := []models.ContentType{models.ContentTypeText, models.ContentTypeVideo, models.ContentTypeAudio, models.ContentTypePodcast}
			stats := make([]typeStats, 0, len(types))
			for _, ct := range types {
				stats = append(stats, typeStats{Type: ct, Chunks: counts[ct], Curated: tables.Len(ct)})
			}

			out := cmd.OutOrStdout()
			if resolveFormat(format, out) == formatJSON {
				return printJSON(out, map[string]interface{}{
					"types":      stats,
					"dimensions": dims,
				})
			}

			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{string(s.Type), strconv.Itoa(s.Chunks), strconv.Itoa(s.Curated)})
			}
			fmt.Fprintln(out, renderTable([]string{"Type", "Chunks", "Curated"}, rows, 1, 2))

			sort.Ints(dims)
			if len(dims) > 1 {
				fmt.Fprintf(out, "Warning: stored embeddings have mixed dimensions %v\n", dims)
			} else if len(dims) == 1 && dims[0] != cfg.EmbeddingDimension {
				fmt.Fprintf(out, "Warning: stored dimension %d differs from configured %d\n", dims[0], cfg.EmbeddingDimension)
			}
			return nil
		},
	}
}

func newSourcesDescribeCmd() *cobra.Command {
	var fileID string

	cmd := &cobra.Command{
		Use:   "describe <type> [title]",
		Short: "Show the curated name, link and descriptions for a source",
		Example: `  assistant sources describe podcast "Episode 12.mp3"
  assistant sources describe text --file-id guide.pdf`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := models.ContentType(args[0])
			if !ct.IsValid() {
				return fmt.Errorf("unknown content type %q", args[0])
			}
			meta := models.ChunkMetadata{Type: ct, FileID: fileID}
			if len(args) == 2 {
				meta.Title = args[1]
			}
			if meta.Title == "" && meta.FileID == "" {
				return fmt.Errorf("a title or --file-id is required")
			}

			tables, err := loadTables()
			if err != nil {
				return err
			}
			desc, found := resolver.New(tables, logging.New("resolver")).Describe(meta)
			links := render.TextRenderer{WebAppURL: cfg.WebAppURL}

			out := cmd.OutOrStdout()
			if resolveFormat(format, out) == formatJSON {
				return printJSON(out, map[string]interface{}{
					"found":       found,
					"description": desc,
					"url":         links.URL(desc.Locator),
				})
			}

			rows := [][]string{
				{"Name", desc.Name},
				{"Locator", desc.Locator},
				{"URL", links.URL(desc.Locator)},
				{"Short", truncate(desc.ShortDescription, 80)},
				{"Long", truncate(desc.LongDescription, 80)},
				{"Curated", strconv.FormatBool(found)},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&fileID, "file-id", "", "File identifier of the source")
	return cmd
}

func loadTables() (*resolver.Tables, error) {
	if cfg.LookupDir == "" {
		return resolver.EmptyTables(), nil
	}
	tables, err := resolver.LoadDir(cfg.LookupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load source tables: %w", err)
	}
	return tables, nil
}
