// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger implements the append-only, tamper-evident ballot chain.

Each (election, category) pair owns one chain. A record's output digest is
SHA-256 over a canonical payload of its persisted fields, and each record
stores its predecessor's digest, so any after-the-fact mutation of a single
field breaks either its own digest or the next record's link.

# Canonical Payload (wardvote/v1)

The digest is defined over this exact byte sequence - newline-joined, in
this order, no trailing newline:

	wardvote/v1
	<election id>
	<unit id>
	<choice id>
	<credential id>
	<cast time, decimal unix seconds UTC>
	<previous digest, or GENESIS at position 1>
	<position, decimal, starting at 1>

Timestamps are persisted as BIGINT unix seconds precisely so this payload is
reproducible byte-for-byte from the stored columns. The version line is the
contract marker: a changed field set or serialization gets a new version so
old seals remain verifiable against the rule that produced them.

# Concurrency

Append derives the tail from the store inside the caller's transaction and
never caches it, so multiple server processes cannot disagree about the
head. Serialization per chain is the casting coordinator's job (advisory
lock on Postgres, single-writer transactions on SQLite); the
UNIQUE(election, category, position) constraint is the final backstop.

# Verification

Walk + VerifyRecords + FoldRecomputedDigests are the offline audit path:
they need only a Querier over a copy of the ballot_record table and
recompute every link from persisted data. FoldDigests over stored digests
is the sealing-time form; the verifier folds recomputations so a field
edit that spared the digest column still breaks the seal comparison.
*/
package ledger
