// Package journal records profile switch history in a local sqlite
// database: every switch (with its acknowledgment outcome) and every
// in-place update of the current profile. The journal is an observer, not
// a participant: losing a journal write never affects the switch itself.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/tonimelisma/profilectl/internal/profile"
)

// Entry kinds.
const (
	KindSwitch = "switch"
	KindUpdate = "update"
)

// Switch acknowledgment outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// maxDetailLen bounds the stored error text; aggregated task failures can
// be arbitrarily long.
const maxDetailLen = 1024

// journalDirPermissions is used when creating the data directory.
const journalDirPermissions = 0o755

// SQL statements for journal access.
const (
	insertEntrySQL = `
		INSERT INTO journal (id, at, kind, profile_id, profile_name, previous_id, previous_name, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recentSQL = `
		SELECT id, at, kind, profile_id, profile_name, previous_id, previous_name, outcome, detail
		FROM journal
		ORDER BY id DESC
		LIMIT ?`
)

// Entry is one journal row.
type Entry struct {
	ID           string    `json:"id"`
	At           time.Time `json:"at"`
	Kind         string    `json:"kind"`
	ProfileID    string    `json:"profile_id"`
	ProfileName  string    `json:"profile_name"`
	PreviousID   string    `json:"previous_id,omitempty"`
	PreviousName string    `json:"previous_name,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
}

// Config carries construction parameters for Open.
type Config struct {
	// Path is the sqlite database file. Its directory is created if
	// missing.
	Path string

	// Logger receives journal logging. Required.
	Logger *slog.Logger
}

// Journal is the switch-history store. Safe for concurrent use; sqlite
// access is serialized through a single connection.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the journal database and applies pending
// schema migrations.
func Open(ctx context.Context, cfg Config) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), journalDirPermissions); err != nil {
		return nil, fmt.Errorf("journal: creating data directory: %w", err)
	}

	// DSN parameters ensure pragmas apply to every connection.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		cfg.Path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: opening %s: %w", cfg.Path, err)
	}

	// Single writer: modernc sqlite is happiest with one connection, and
	// the journal's write rate makes pooling pointless.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("journal: connecting to %s: %w", cfg.Path, err)
	}

	if err := runMigrations(ctx, db, cfg.Logger); err != nil {
		db.Close()

		return nil, err
	}

	return &Journal{db: db, logger: cfg.Logger}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordSwitch stores the outcome of one committed switch. The caller
// records once, after the switch's joined work has settled, so the row
// carries the acknowledgment outcome and any aggregated failure text.
func (j *Journal) RecordSwitch(ctx context.Context, previous, next profile.Profile, outcome, detail string) error {
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}

	entry := Entry{
		ID:           ulid.Make().String(),
		At:           time.Now().UTC(),
		Kind:         KindSwitch,
		ProfileID:    next.ID,
		ProfileName:  next.Name,
		PreviousID:   previous.ID,
		PreviousName: previous.Name,
		Outcome:      outcome,
		Detail:       detail,
	}

	return j.insert(ctx, entry)
}

// RecordUpdate stores an in-place refresh of the current profile.
func (j *Journal) RecordUpdate(ctx context.Context, current profile.Profile) error {
	entry := Entry{
		ID:          ulid.Make().String(),
		At:          time.Now().UTC(),
		Kind:        KindUpdate,
		ProfileID:   current.ID,
		ProfileName: current.Name,
		Outcome:     OutcomeOK,
	}

	return j.insert(ctx, entry)
}

func (j *Journal) insert(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, insertEntrySQL,
		e.ID,
		e.At.Format(time.RFC3339Nano),
		e.Kind,
		e.ProfileID,
		e.ProfileName,
		e.PreviousID,
		e.PreviousName,
		e.Outcome,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("journal: recording %s entry: %w", e.Kind, err)
	}

	j.logger.Debug("journal entry recorded",
		slog.String("kind", e.Kind),
		slog.String("profile_id", e.ProfileID),
		slog.String("outcome", e.Outcome),
	)

	return nil
}

// Recent returns up to limit entries, newest first. ULIDs sort
// lexicographically by creation time, so ordering by id is ordering by
// time without parsing timestamps.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e  Entry
			at string
		)

		if err := rows.Scan(
			&e.ID, &at, &e.Kind,
			&e.ProfileID, &e.ProfileName,
			&e.PreviousID, &e.PreviousName,
			&e.Outcome, &e.Detail,
		); err != nil {
			return nil, fmt.Errorf("journal: scanning entry: %w", err)
		}

		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("journal: parsing timestamp %q: %w", at, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating entries: %w", err)
	}

	return entries, nil
}
