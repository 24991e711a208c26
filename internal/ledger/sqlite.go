// Package ledger persists every pull run in a local SQLite database so the
// CLI and the admin API can answer "what ran, when, and where did it go"
// without the process that ran it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// SQLite DSN parameters for production hardening.
const (
	busyTimeout = "5000" // 5 seconds
	synchronous = "NORMAL"
	journalMode = "WAL"
)

// Ledger owns a write pool (single connection, immediate transactions) and
// a small read pool over the same SQLite file. Writers are the workflow
// runs; readers are the admin API and the runs command.
type Ledger struct {
	write *sql.DB
	read  *sql.DB
}

// Open opens the ledger file, applies pending migrations, and returns the
// connected pools.
func Open(path string) (*Ledger, error) {
	write, err := openPool(path, "write", 0)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(write); err != nil {
		_ = write.Close()
		return nil, err
	}

	read, err := openPool(path, "read", 4)
	if err != nil {
		_ = write.Close()
		return nil, err
	}

	return &Ledger{write: write, read: read}, nil
}

// Close closes both pools.
func (l *Ledger) Close() error {
	rerr := l.read.Close()
	werr := l.write.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// openPool opens a *sql.DB for the ledger file.
//
// mode controls write-safety and pool sizing:
//   - "write": MaxOpenConns=1, MaxIdleConns=1, includes _txlock=immediate
//   - "read":  MaxOpenConns=maxOpen (0 defaults to 4), no _txlock
//
// Both modes set WAL journal, busy_timeout=5000ms, synchronous=NORMAL,
// and foreign_keys=on.
func openPool(path string, mode string, maxOpen int) (*sql.DB, error) {
	if mode != "read" && mode != "write" {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open ledger (%s): %w", mode, err)
	}

	switch mode {
	case "write":
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case "read":
		if maxOpen <= 0 {
			maxOpen = 4
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	// Verify the connection is usable.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger (%s): %w", mode, err)
	}

	return db, nil
}

// buildDSN constructs a SQLite DSN with hardened parameters.
func buildDSN(path string, mode string) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeout)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")

	if mode == "write" {
		params.Set("_txlock", "immediate")
	}

	return path + "?" + params.Encode()
}
