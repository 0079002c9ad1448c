// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the wardvote API.

# Handler Types

Each handler is a struct with database, config, and engine dependencies:

  - ElectionHandler: Election lifecycle (create, choices, open, close, audit)
  - UnitHandler: Voting-unit registry and credential issuance
  - CastingHandler: Ballot casting via the transaction coordinator
  - IntegrityHandler: Chain sealing and verification
  - ResultsHandler: Post-close tallies

Handlers are created via constructor functions that accept *sql.DB, Config,
and the engine component they front:

	castingHandler := handlers.NewCastingHandler(db, cfg, coordinator)

# Election Lifecycle

Elections progress through three states: draft → open → closed

	POST /elections               → CreateElection (returns admin_key)
	POST /elections/{id}/choices  → AddChoice (draft only)
	POST /elections/{id}/open     → OpenElection (needs choices in every category)
	POST /elections/{id}/close    → CloseElection (expires ACTIVE credentials)

Admin operations require the X-Admin-Key header.

# Credential and Casting Flow

	POST /units                                       → Register a voting unit
	POST /elections/{id}/units/{unit}/credentials     → IssueCredential (secret returned once)
	POST /elections/{id}/ballots                      → CastBallot

Casting responds 200 with one of three outcomes: accepted, already_voted,
or invalid_credential. Retries and double submits land on already_voted.

# Sealing and Audit

	POST /elections/{id}/seal               → SealChain (closed elections only, once)
	GET  /elections/{id}/verify?category=   → VerifyChain (public, read-only)
	GET  /elections/{id}/results?category=  → GetResults (closed elections only)
	GET  /elections/{id}/audit              → GetAudit (operator)
*/
package handlers
