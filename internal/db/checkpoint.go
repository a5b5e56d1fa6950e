package db

import (
	"database/sql"
	"fmt"

	"github.com/thesavant42/adarchive/internal/models"
)

// SaveCheckpoint saves or updates the checkpoint for a traversal run.
// Search parameters are fixed at the first save; later saves only move the progress columns.
func (db *DB) SaveCheckpoint(cp models.Checkpoint) error {
	if cp.RunID == "" {
		return fmt.Errorf("checkpoint has no run id")
	}
	_, err := db.conn.Exec(upsertCheckpoint,
		cp.RunID,
		cp.SearchTerm,
		cp.Country,
		nullString(cp.CursorURL),
		cp.MinDate,
		nullString(cp.MaxDate),
		cp.Pages,
		cp.Records,
		cp.IsComplete,
		nullString(cp.LastError),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint for a run, or nil if there is none
func (db *DB) GetCheckpoint(runID string) (*models.Checkpoint, error) {
	cp, err := scanCheckpoint(db.conn.QueryRow(selectCheckpoint, runID))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return cp, nil
}

// GetLatestIncompleteCheckpoint returns the most recently updated unfinished run for a search, or nil
func (db *DB) GetLatestIncompleteCheckpoint(searchTerm, country string) (*models.Checkpoint, error) {
	cp, err := scanCheckpoint(db.conn.QueryRow(selectLatestIncompleteCheckpoint, searchTerm, country))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest checkpoint: %w", err)
	}
	return cp, nil
}

// ListCheckpoints returns every checkpoint, most recent first
func (db *DB) ListCheckpoints() ([]models.Checkpoint, error) {
	rows, err := db.conn.Query(selectCheckpoints)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []models.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, *cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoints: %w", err)
	}
	return checkpoints, nil
}

// DeleteCheckpoint removes the checkpoint for a run
func (db *DB) DeleteCheckpoint(runID string) error {
	_, err := db.conn.Exec(deleteCheckpoint, runID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	var cursorURL, maxDate, lastError sql.NullString
	var updatedAt string

	err := row.Scan(
		&cp.RunID, &cp.SearchTerm, &cp.Country, &cursorURL, &cp.MinDate, &maxDate,
		&cp.Pages, &cp.Records, &cp.IsComplete, &lastError, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cp.CursorURL = cursorURL.String
	cp.MaxDate = maxDate.String
	cp.LastError = lastError.String
	cp.UpdatedAt, _ = parseTimestamp(updatedAt)
	return &cp, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
