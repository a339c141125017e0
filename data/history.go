package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/caelumsys/caelum/command"
)

// maxOutput caps the stored output of one command.
const maxOutput = 4 << 10

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id          TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	pattern     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL DEFAULT 0,
	exact       INTEGER NOT NULL DEFAULT 0,
	duration_ns INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS history_created_at ON history (created_at);
`

const historyColumns = `id, input, pattern, status, output, error, score, exact, duration_ns, created_at`

// Entry is one executed command.
type Entry struct {
	ID        string
	Input     string
	Pattern   string
	Status    string
	Output    string
	Error     string
	Score     float64
	Exact     bool
	Duration  time.Duration
	CreatedAt time.Time
}

// EntryFromResult converts a dispatcher result into a history entry.
func EntryFromResult(r command.Result) Entry {
	e := Entry{
		ID:        r.ID,
		Input:     r.Input,
		Pattern:   r.Pattern,
		Status:    r.Status.String(),
		Output:    r.Output,
		Score:     r.Score,
		Exact:     r.Exact,
		Duration:  r.Duration,
		CreatedAt: time.Now(),
	}
	if !r.OK() {
		e.Error = r.String()
	}
	return e
}

// History is the SQLite backed command log.
type History struct {
	db *sql.DB
}

var _ command.Observer = (*History)(nil)

// Open opens or creates the history database at path.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("opened history")
	return &History{db: db}, nil
}

// Record stores e. Missing IDs and timestamps are filled in.
func (h *History) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Output = truncate(e.Output, maxOutput)

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Input, e.Pattern, e.Status, e.Output, e.Error,
		e.Score, e.Exact, int64(e.Duration), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			duration int64
			created  int64
		)
		if err := rows.Scan(&e.ID, &e.Input, &e.Pattern, &e.Status, &e.Output, &e.Error,
			&e.Score, &e.Exact, &duration, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Duration = time.Duration(duration)
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Observe records every non-empty execution.
func (h *History) Observe(ctx context.Context, r command.Result) error {
	if r.Status == command.StatusEmpty {
		return nil
	}
	return h.Record(ctx, EntryFromResult(r))
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
