// ABOUTME: Load command imports chunks with precomputed embeddings
// ABOUTME: Reads JSON lines, validates type and dimension, and writes in batches
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

const (
	loadBatchSize = 500
	// embeddings at 3072 dimensions run well past bufio's default line limit
	maxLineBytes = 16 << 20
)

// NewLoadCmd creates the load command
func NewLoadCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "load <file.jsonl>",
		Short: "Import content chunks with precomputed embeddings",
		Long: `Import content chunks from a JSON lines file.

Each line is one chunk:
  {"id": "...", "text": "...", "embedding": [...],
   "metadata": {"type": "text|video|audio|podcast", "file_id": "...", "title": "..."}}

Chunks without an id get a generated one. Every embedding must have the
configured EMBEDDING_DIMENSION; the whole file is rejected otherwise.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(batch, "batch"); err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			chunks, err := readChunks(in, cfg.EmbeddingDimension)
			if err != nil {
				return err
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := saveChunks(cmd.Context(), sqlite.NewChunkStore(db), chunks, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d chunks into %s\n", n, db.Path())
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", loadBatchSize, "Chunks per transaction")
	return cmd
}

// readChunks parses and validates every line before anything is written
func readChunks(r io.Reader, dim int) ([]models.Chunk, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var chunks []models.Chunk
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var c models.Chunk
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if !c.Metadata.Type.IsValid() {
			return nil, fmt.Errorf("line %d: unknown content type %q", line, c.Metadata.Type)
		}
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("line %d: empty text", line)
		}
		if err := models.ValidateDimension(c.Embedding, dim); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	return chunks, nil
}

func saveChunks(ctx context.Context, store *sqlite.ChunkStore, chunks []models.Chunk, batch int) (int, error) {
	saved := 0
	for start := 0; start < len(chunks); start += batch {
		end := min(start+batch, len(chunks))
		if err := store.SaveBatch(ctx, chunks[start:end]); err != nil {
			return saved, fmt.Errorf("failed to save chunks %d-%d: %w", start+1, end, err)
		}
		saved = end
	}
	return saved, nil
}
