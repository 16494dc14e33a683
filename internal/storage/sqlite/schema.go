// ABOUTME: SQLite database schema for the content store and model call audit log
// ABOUTME: Chunks are populated by the loader; the assistant only reads them
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Content chunks with precomputed embeddings (float64 little-endian BLOB)
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    content_type TEXT NOT NULL,
    file_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    embedding BLOB,
    dims INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per external model call
CREATE TABLE IF NOT EXISTS llm_request_logs (
    id TEXT PRIMARY KEY,
    request_type TEXT NOT NULL,
    model TEXT NOT NULL,
    user_id TEXT,
    session_id TEXT,
    input_text TEXT,
    output_text TEXT,
    tokens_prompt INTEGER DEFAULT 0,
    tokens_completion INTEGER DEFAULT 0,
    tokens_total INTEGER DEFAULT 0,
    latency_ms INTEGER NOT NULL,
    success INTEGER NOT NULL,
    error_message TEXT,
    metadata TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(content_type);
CREATE INDEX IF NOT EXISTS idx_chunks_dims ON chunks(dims);
CREATE INDEX IF NOT EXISTS idx_logs_created ON llm_request_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_logs_user ON llm_request_logs(user_id);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
