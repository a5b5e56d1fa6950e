package db

// Schema for traversal checkpoints (one row per run, updated after every batch)
const createCheckpointsTable = `
CREATE TABLE IF NOT EXISTS traversal_checkpoints (
    run_id TEXT PRIMARY KEY,
    search_term TEXT NOT NULL,
    country TEXT NOT NULL,
    cursor_url TEXT,
    min_date TEXT NOT NULL,
    max_date TEXT,
    pages INTEGER NOT NULL DEFAULT 0,
    records INTEGER NOT NULL DEFAULT 0,
    is_complete INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_search ON traversal_checkpoints(search_term, country);
`

const upsertCheckpoint = `
INSERT INTO traversal_checkpoints (
    run_id, search_term, country, cursor_url, min_date, max_date,
    pages, records, is_complete, last_error, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(run_id) DO UPDATE SET
    cursor_url = excluded.cursor_url,
    pages = excluded.pages,
    records = excluded.records,
    is_complete = excluded.is_complete,
    last_error = excluded.last_error,
    updated_at = CURRENT_TIMESTAMP
`

const selectCheckpointColumns = `
SELECT run_id, search_term, country, cursor_url, min_date, max_date,
       pages, records, is_complete, last_error, updated_at
FROM traversal_checkpoints
`

const selectCheckpoint = selectCheckpointColumns + `
WHERE run_id = ?
`

// rowid breaks ties between checkpoints written within the same second
const selectLatestIncompleteCheckpoint = selectCheckpointColumns + `
WHERE search_term = ? AND country = ? AND is_complete = 0
ORDER BY updated_at DESC, rowid DESC
LIMIT 1
`

const selectCheckpoints = selectCheckpointColumns + `
ORDER BY updated_at DESC, rowid DESC
`

const deleteCheckpoint = `
DELETE FROM traversal_checkpoints WHERE run_id = ?
`
