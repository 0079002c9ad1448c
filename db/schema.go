// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The schema is kept portable across Postgres and SQLite: timestamps are
// BIGINT unix seconds set by the application (the ballot timestamp is part
// of the canonical digest payload, so its stored form must round-trip
// byte-for-byte), and no server-side defaults are relied on.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    created_unix BIGINT NOT NULL,
    opened_unix BIGINT,
    closed_unix BIGINT
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Choices (council candidates, fiscal lists)
CREATE TABLE IF NOT EXISTS choice (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    category TEXT NOT NULL CHECK (category IN ('council', 'fiscal')),
    label TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_choice_election ON choice(election_id, category);

-- Voting units (households/addresses); identity is immutable once created
CREATE TABLE IF NOT EXISTS voting_unit (
    id TEXT PRIMARY KEY,
    address TEXT NOT NULL UNIQUE,
    created_unix BIGINT NOT NULL
);

-- Credentials; only the secret's one-way hash is stored
CREATE TABLE IF NOT EXISTS credential (
    id TEXT PRIMARY KEY,
    unit_id TEXT NOT NULL REFERENCES voting_unit(id),
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    secret_hash TEXT NOT NULL UNIQUE,
    state TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (state IN ('ACTIVE', 'USED', 'REVOKED', 'EXPIRED')),
    issued_unix BIGINT NOT NULL,
    consumed_unix BIGINT
);

CREATE INDEX IF NOT EXISTS idx_credential_hash ON credential(secret_hash);
CREATE INDEX IF NOT EXISTS idx_credential_unit ON credential(unit_id, election_id, state);

-- Ballot records: the append-only hash chain, one chain per (election, category).
-- No update or delete path exists for these rows once written.
CREATE TABLE IF NOT EXISTS ballot_record (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    category TEXT NOT NULL CHECK (category IN ('council', 'fiscal')),
    unit_id TEXT NOT NULL REFERENCES voting_unit(id),
    choice_id TEXT NOT NULL REFERENCES choice(id),
    credential_id TEXT NOT NULL REFERENCES credential(id),
    position BIGINT NOT NULL,
    prev_digest TEXT NOT NULL,
    digest TEXT NOT NULL,
    cast_unix BIGINT NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    UNIQUE (election_id, category, unit_id),
    UNIQUE (election_id, category, position)
);

CREATE INDEX IF NOT EXISTS idx_ballot_record_chain ON ballot_record(election_id, category, position);

-- Seals: one per (election, category), created once at election close
CREATE TABLE IF NOT EXISTS seal (
    election_id TEXT NOT NULL REFERENCES election(id),
    category TEXT NOT NULL CHECK (category IN ('council', 'fiscal')),
    digest TEXT NOT NULL,
    record_count BIGINT NOT NULL,
    sealed_unix BIGINT NOT NULL,
    sealed_by TEXT NOT NULL,
    PRIMARY KEY (election_id, category)
);

-- Audit events
CREATE TABLE IF NOT EXISTS audit_event (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    subject TEXT NOT NULL,
    occurred_unix BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_event_election ON audit_event(election_id, occurred_unix);
`
