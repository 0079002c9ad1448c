// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and dialect differences between the two
supported stores.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: Election metadata and lifecycle state
  - choice: Choices per election and category
  - voting_unit: Registered households/addresses
  - credential: Hashed one-use secrets with lifecycle state
  - ballot_record: The append-only hash chain (one per election+category)
  - seal: Folded chain digests, one per election+category
  - audit_event: Operator-visible audit trail

# Integrity Constraints

The ledger's correctness rests on two uniqueness constraints, enforced in
the schema rather than application logic:

	UNIQUE (election_id, category, unit_id)   -- at most one ballot per unit
	UNIQUE (election_id, category, position)  -- gap-free ordering backstop

# Dialects

Dialect covers the places Postgres and SQLite diverge: FOR UPDATE row locks
(RowLock), per-chain advisory locks (LockChain), and uniqueness-violation
detection (IsUniqueViolation, via *pq.Error on Postgres and error-string
matching on SQLite). Placeholders use $1 syntax, which both lib/pq and
modernc.org/sqlite accept.
*/
package db
