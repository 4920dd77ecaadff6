// Copyright Awele Larsen, 2026. All rights reserved.

// Package ledger records every download attempt in a SQLite database so
// failed runs can be analyzed after the fact. The ledger is advisory:
// the manifest remains the source of truth for paper status.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger appends attempt records to a SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the attempt ledger at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			url TEXT,
			outcome TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_paper_id ON attempts(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_phase ON attempts(phase)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordAttempt appends one attempt row. Errors are returned but
// callers treat them as advisory.
func (l *Ledger) RecordAttempt(paperID, phase, url, outcome string) error {
	_, err := l.db.Exec(
		`INSERT INTO attempts (paper_id, phase, url, outcome, created_at) VALUES (?, ?, ?, ?, ?)`,
		paperID, phase, url, outcome, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// PhaseCount holds aggregate attempt counts for one phase.
type PhaseCount struct {
	Phase     string
	Attempts  int
	Successes int
}

// Summary returns per-phase attempt counts ordered by attempt volume.
func (l *Ledger) Summary() ([]PhaseCount, error) {
	rows, err := l.db.Query(
		`SELECT phase,
			count(*),
			sum(CASE WHEN outcome = 'downloaded' THEN 1 ELSE 0 END)
		 FROM attempts GROUP BY phase ORDER BY count(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ledger summary: %w", err)
	}
	defer rows.Close()

	var out []PhaseCount
	for rows.Next() {
		var pc PhaseCount
		if err := rows.Scan(&pc.Phase, &pc.Attempts, &pc.Successes); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
