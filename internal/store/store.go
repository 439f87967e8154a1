package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/sheetran/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_key TEXT NOT NULL,
		model TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_key, model, target_lang)
	);

	-- runs records one row per translate invocation
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		destination_file TEXT NOT NULL,
		model TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		tasks INTEGER DEFAULT 0,
		resolved INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_key, model, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the remembered translation of key, bumping its usage count.
func (s *Store) Lookup(ctx context.Context, key internal.NormalizedKey, model, targetLang string) (string, bool, error) {
	var finalText string
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text FROM translation_memory WHERE source_key = ? AND model = ? AND target_lang = ?`,
		string(key), model, targetLang).Scan(&finalText)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_key = ? AND model = ? AND target_lang = ?`,
		time.Now(), string(key), model, targetLang)

	return finalText, true, err
}

// Save stores a successful translation, replacing any earlier one for the
// same key, model and language.
func (s *Store) Save(ctx context.Context, key internal.NormalizedKey, model, targetLang, finalText string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_key, model, target_lang, final_text, usage_count, last_used, created_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		uuid.NewString(), string(key), model, targetLang, finalText, now, now)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID         string
	SourceKey  string
	Model      string
	TargetLang string
	FinalText  string
	UsageCount int
	LastUsed   time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
	Languages    int
	Runs         int
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns translation memory entries ordered by most recently
// used. An empty targetLang lists every language.
func (s *Store) ListMemory(ctx context.Context, targetLang string) ([]MemoryEntry, error) {
	query := `SELECT id, source_key, model, target_lang, final_text, usage_count, last_used FROM translation_memory`
	var args []interface{}
	if targetLang != "" {
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY last_used DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceKey, &e.Model, &e.TargetLang, &e.FinalText, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(usage_count), 0),
			COUNT(DISTINCT target_lang)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.TotalUsage,
		&stats.Languages,
	)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}
	return stats, nil
}

// Run is a row from the runs table.
type Run struct {
	ID              string
	SourceFile      string
	DestinationFile string
	Model           string
	TargetLang      string
	Status          string
	Tasks           int
	Resolved        int
	Failed          int
	StartedAt       time.Time
}

// StartRun records the start of a translate invocation and returns its ID.
func (s *Store) StartRun(ctx context.Context, sourceFile, destinationFile, model, targetLang string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_file, destination_file, model, target_lang, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceFile, destinationFile, model, targetLang, time.Now())
	return id, err
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, tasks, resolved, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, tasks = ?, resolved = ?, failed = ?, finished_at = ? WHERE id = ?`,
		status, tasks, resolved, failed, time.Now(), runID)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_file, destination_file, model, target_lang, status, tasks, resolved, failed, started_at FROM runs WHERE id = ?`,
		runID).Scan(&r.ID, &r.SourceFile, &r.DestinationFile, &r.Model, &r.TargetLang, &r.Status, &r.Tasks, &r.Resolved, &r.Failed, &r.StartedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return &r, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
