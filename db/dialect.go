// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/lib/pq"
)

// Dialect abstracts the two supported stores. Postgres is the production
// target; SQLite (modernc.org/sqlite) backs development and the test suite.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a DATABASE_TYPE value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "postgres":
		return Postgres, nil
	case "sqlite", "":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", s)
}

// DriverName returns the database/sql driver name for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// RowLock returns the clause appended to a SELECT that must take a row-level
// exclusive lock. SQLite has no FOR UPDATE; its single-writer transactions
// already serialize conflicting casts.
func (d Dialect) RowLock() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// LockChain serializes appends for one (election, category) chain for the
// remainder of the transaction. Two concurrent appends must never read the
// same tail, otherwise they would compute the same next position.
//
// On Postgres this takes a transaction-scoped advisory lock keyed by an
// FNV-64a hash of the chain identity; the lock releases automatically at
// commit or rollback. On SQLite the write transaction itself is the lock.
func (d Dialect) LockChain(tx *sql.Tx, electionID, category string) error {
	if d != Postgres {
		return nil
	}
	key := chainLockKey(electionID, category)
	if _, err := tx.Exec("SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("failed to lock chain %s/%s: %w", electionID, category, err)
	}
	return nil
}

func chainLockKey(electionID, category string) int64 {
	h := fnv.New64a()
	h.Write([]byte(electionID))
	h.Write([]byte{'/'})
	h.Write([]byte(category))
	return int64(h.Sum64())
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
// The casting path leans on this: a duplicate ballot that slips past the row
// lock surfaces here at insert time and is translated to already_voted.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	// modernc.org/sqlite reports constraint failures as plain error strings
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
