// Package record persists per-window simulation statistics to a SQLite database.
package record

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	sim "github.com/inference-sim/dramsim/sim"
)

const createWindowsSQL = `CREATE TABLE IF NOT EXISTS windows (
	run_id             TEXT    NOT NULL,
	window_index       INTEGER NOT NULL,
	start_s            REAL    NOT NULL,
	end_s              REAL    NOT NULL,
	errors_injected    INTEGER NOT NULL,
	accesses           INTEGER NOT NULL,
	scrubs             INTEGER NOT NULL,
	peak_schedule      INTEGER NOT NULL,
	errors_encountered INTEGER NOT NULL,
	errors_corrected   INTEGER NOT NULL,
	overwrites         INTEGER NOT NULL,
	upset_after        INTEGER NOT NULL,
	PRIMARY KEY (run_id, window_index)
);`

const createRunsSQL = `CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	seed               INTEGER NOT NULL,
	grid_rows          INTEGER NOT NULL,
	grid_cols          INTEGER NOT NULL,
	error_rate         REAL    NOT NULL,
	num_accesses       INTEGER NOT NULL,
	scrub_interval     REAL    NOT NULL,
	sim_time           REAL    NOT NULL,
	batches            INTEGER NOT NULL,
	tie_break          TEXT    NOT NULL,
	errors_injected    INTEGER NOT NULL,
	errors_encountered INTEGER NOT NULL,
	errors_corrected   INTEGER NOT NULL,
	overwrites         INTEGER NOT NULL,
	residual_upset     INTEGER NOT NULL,
	peak_schedule      INTEGER NOT NULL
);`

const insertWindowSQL = `INSERT INTO windows VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertRunSQL = `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// DefaultBatchSize is the number of buffered windows that triggers a flush.
const DefaultBatchSize = 1000

// Recorder buffers window statistics and writes them to SQLite in transactions.
// It implements sim.WindowObserver.
type Recorder struct {
	db        *sql.DB
	path      string
	pending   []sim.WindowStats
	batchSize int
	closed    bool
}

// New creates the database at path and its tables. An empty path picks a unique
// name in the working directory. An existing file is never overwritten.
// Buffered windows are flushed on Close, or at process exit via atexit.
func New(path string) (*Recorder, error) {
	if path == "" {
		path = "dramsim_" + xid.New().String() + ".sqlite3"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("record file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, stmt := range []string{createWindowsSQL, createRunsSQL} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables in %s: %w", path, err)
		}
	}

	r := &Recorder{
		db:        db,
		path:      path,
		batchSize: DefaultBatchSize,
	}
	atexit.Register(func() {
		if err := r.Close(); err != nil {
			logrus.Errorf("Flushing records to %s: %v", r.path, err)
		}
	})
	logrus.Infof("Recording window statistics to %s", path)
	return r, nil
}

// Path returns the database file path.
func (r *Recorder) Path() string { return r.path }

// ObserveWindow implements sim.WindowObserver.
func (r *Recorder) ObserveWindow(ws sim.WindowStats) error {
	if r.closed {
		return fmt.Errorf("recorder %s is closed", r.path)
	}
	r.pending = append(r.pending, ws)
	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}
	return nil
}

// Flush writes all buffered windows in one transaction.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertWindowSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare window insert: %w", err)
	}
	defer stmt.Close()

	for _, ws := range r.pending {
		_, err := stmt.Exec(ws.RunID, ws.Index, ws.Window.Start, ws.Window.End,
			ws.Generated.Errors, ws.Generated.Accesses, ws.Generated.Scrubs, ws.PeakSchedule,
			ws.Delta.ErrorsEncountered, ws.Delta.ErrorsCorrected, ws.Delta.Overwrites, ws.UpsetAfter)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert window %d of run %s: %w", ws.Index, ws.RunID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit windows: %w", err)
	}

	r.pending = r.pending[:0]
	return nil
}

// RecordRun stores the configuration and final metrics of a finished run.
func (r *Recorder) RecordRun(s *sim.Simulator) error {
	if r.closed {
		return fmt.Errorf("recorder %s is closed", r.path)
	}
	if err := r.Flush(); err != nil {
		return err
	}
	c, m := s.Config, s.Metrics
	_, err := r.db.Exec(insertRunSQL, s.ID, int64(s.Key), c.Rows, c.Cols, c.ErrorRate, c.NumAccesses,
		c.ScrubInterval, c.SimTime, c.Batches, string(c.TieBreak),
		m.ErrorsInjected, m.ErrorsEncountered, m.ErrorsCorrected, m.Overwrites, m.ResidualUpset, m.PeakSchedule)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", s.ID, err)
	}
	return nil
}

// Close flushes pending windows and closes the database. It is safe to call twice.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	flushErr := r.Flush()
	r.closed = true
	if err := r.db.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	return flushErr
}
