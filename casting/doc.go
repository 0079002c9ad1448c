// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package casting enforces exclusive, exactly-once ballot admission per voting
unit per category.

The coordinator owns the casting transaction end to end. Everything that
needs mutual exclusion is pushed into the database - a row lock on the
credential, a per-chain lock for the ledger append, and the schema's
uniqueness constraints - so no process-local state exists to invalidate
across restarts or multiple server instances.

# Credential State Machine

	ACTIVE --(first category recorded)--> ACTIVE
	ACTIVE --(second category recorded)--> USED

The order of categories is not fixed; a unit may cast fiscal before
council. A credential becomes USED only once both categories have a
record.

# Outcomes

Cast returns a Result value for every routine terminal state:

	accepted           new chain link committed, receipt in Result.Record
	already_voted      USED credential, or a ballot already exists for the
	                   category (including the constraint-violation race)
	invalid_credential unknown secret, wrong election, REVOKED, or EXPIRED

An error return means infrastructure failure (lost connection, lock
timeout); the transaction has been rolled back wholesale and the caller may
retry the whole request, which is safe because retried casts are idempotent
in outcome.
*/
package casting
