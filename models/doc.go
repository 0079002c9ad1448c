// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the request, response, and domain types shared across
the wardvote API.

# Domain Types

The core entities of the integrity engine:

  - Election: lifecycle container (draft → open → closed)
  - Unit: a household/address eligible for one ballot per category
  - Credential: one-use secret (stored hashed) authorizing a unit to vote
  - BallotRecord: one hash-chained ledger entry per (election, category, unit)
  - Seal: folded digest over a closed chain
  - AuditEvent: operator-visible trail of issuance and lifecycle actions

# Categories

Category is a closed enumeration (council, fiscal). Everything downstream
depends on the set being fixed: the per-category chains, the uniqueness
constraints, and the credential retirement rule (USED only once both
categories are recorded).

# Cast Outcomes

Casting resolves to one of three string outcomes rather than an error:

	accepted           ballot admitted, receipt fields populated
	already_voted      unit already has a ballot for the category
	invalid_credential unknown, revoked, or expired secret

# Timestamps

All persisted timestamps are int64 unix seconds (UTC). The ballot timestamp
participates in the canonical digest payload, so its serialization must be
reproducible byte-for-byte from the stored column.
*/
package models
