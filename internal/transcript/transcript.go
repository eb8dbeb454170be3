// Package transcript keeps an append-only audit log of every generation:
// the prompt sent, the text returned, and the token usage reported by the
// backend. Consumers read it after the fact; the engine only appends.
package transcript

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Entry struct {
	ID               int       `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	Purpose          string    `json:"purpose"`
	Provider         string    `json:"provider"`
	Prompt           string    `json:"prompt"`
	Response         string    `json:"response"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	EstimatedUsage   bool      `json:"estimated_usage"`
}

type Recorder struct {
	db *sql.DB
}

func NewRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create transcript tables: %w", err)
	}
	return r, nil
}

func (r *Recorder) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcript (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		session_id TEXT NOT NULL,
		purpose TEXT NOT NULL,
		provider TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		estimated_usage INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcript_timestamp ON transcript(timestamp);
	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Record appends one generation to the log.
func (r *Recorder) Record(e Entry) error {
	_, err := r.db.Exec(`
		INSERT INTO transcript (session_id, purpose, provider, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, estimated_usage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Purpose, e.Provider, e.Prompt, e.Response,
		e.PromptTokens, e.CompletionTokens, e.TotalTokens, boolToInt(e.EstimatedUsage))
	return err
}

// Recent returns the latest n entries, newest first.
func (r *Recorder) Recent(n int) ([]Entry, error) {
	rows, err := r.db.Query(`
		SELECT id, timestamp, session_id, purpose, provider, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, estimated_usage
		FROM transcript ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var estimated int
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.SessionID, &e.Purpose, &e.Provider,
			&e.Prompt, &e.Response, &e.PromptTokens, &e.CompletionTokens,
			&e.TotalTokens, &estimated); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		e.EstimatedUsage = estimated != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TotalUsage reports the summed token usage across the whole log.
func (r *Recorder) TotalUsage() (prompt, completion int, err error) {
	row := r.db.QueryRow(`SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0) FROM transcript`)
	if err := row.Scan(&prompt, &completion); err != nil {
		return 0, 0, fmt.Errorf("failed to sum usage: %w", err)
	}
	return prompt, completion, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
