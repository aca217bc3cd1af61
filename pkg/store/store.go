// Package store is the State Store (spec.md §2, §3, §6): a single-file
// embedded database holding durable state, append-only event/action/CCI
// logs, approvals, and the transcript. It is the only shared mutable
// resource in the pipeline (spec.md §5); every other component reads a
// snapshot through Store and proposes a write through WriteTx, which
// serializes writers.
//
// Grounded on the teacher's pkg/database layering (client.go opens the
// connection and runs migrations, health.go reports pool stats) but
// rewritten by hand against modernc.org/sqlite now that ent is gone —
// see DESIGN.md.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sbrunomello/pce-engine/pkg/pipelineerr"
)

// defaultHistoryBound mirrors spec.md §4.4's CCI window W = 50, reused
// as the ring size for event_history/action_history/cci_history absent
// an explicit Config override.
const defaultHistoryBound = 50

// defaultTranscriptRetention is how long transcript rows are kept before
// TrimHistories prunes them. The cursor itself never resets (spec.md
// §4.9); this bounds table growth on a long-running single-node deploy.
const defaultTranscriptRetention = 30 * 24 * time.Hour

// Store wraps a single *sql.DB connection to the embedded database.
// WAL mode plus a connection pool capped at one open connection gives
// the "single writer goroutine owns the connection" guarantee spec.md
// §6 asks for, while still allowing concurrent readers via WAL.
type Store struct {
	db *sql.DB

	// writeMu additionally serializes logical write transactions beyond
	// what the capped connection pool alone provides, so WriteTx calls
	// observe a consistent read-then-write view of the `state` row.
	writeMu sync.Mutex

	historyBound        int
	transcriptRetention time.Duration
}

// Config configures Open, mirroring the teacher's pkg/database.Config
// (one struct carrying both connection and retention settings).
type Config struct {
	Path string

	// HistoryBound is the ring size for event_history/action_history/
	// cci_history. Zero uses defaultHistoryBound.
	HistoryBound int

	// TranscriptRetention is how long transcript rows survive before
	// TrimHistories prunes them. Zero uses defaultTranscriptRetention.
	TranscriptRetention time.Duration
}

// Open opens (creating if absent) the SQLite database at cfg.Path,
// enables WAL mode, and applies any pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		filepath.Clean(cfg.Path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single physical connection is the simplest way to guarantee the
	// "single writer" invariant; WAL mode still lets other processes
	// read the file concurrently if ever needed.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	historyBound := cfg.HistoryBound
	if historyBound <= 0 {
		historyBound = defaultHistoryBound
	}
	transcriptRetention := cfg.TranscriptRetention
	if transcriptRetention <= 0 {
		transcriptRetention = defaultTranscriptRetention
	}

	return &Store{db: db, historyBound: historyBound, transcriptRetention: transcriptRetention}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// HealthStatus reports connectivity and pool statistics, mirroring the
// teacher's pkg/database.Health shape.
type HealthStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time_ms"`
}

// Health checks connectivity.
func (s *Store) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return HealthStatus{Status: "unhealthy", ResponseTime: time.Since(start)}
	}
	return HealthStatus{Status: "healthy", ResponseTime: time.Since(start)}
}

// WriteTx runs fn inside a serialized write transaction: writeMu
// guarantees only one logical writer executes at a time, and the SQL
// transaction gives atomicity for the multi-table writes a single
// pipeline invocation needs (event insert + state upsert + action
// insert + cci insert + transcript append all commit together, or none
// do). A single retry is attempted on SQLITE_BUSY before the caller is
// told to fail the request with state_conflict (spec.md §7).
func (s *Store) WriteTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = s.runTx(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !isBusyError(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", pipelineerr.ErrStateConflict, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{tx: sqlTx, ctx: ctx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces SQLITE_BUSY in the error text; a
	// string check keeps this independent of the driver's internal
	// error type across versions.
	return strings.Contains(strings.ToUpper(err.Error()), "SQLITE_BUSY")
}
