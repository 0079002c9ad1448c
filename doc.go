// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the wardvote API server.

Wardvote is a neighborhood electronic-voting backend built around a vote
integrity engine: one ballot per voting unit per category, every ballot
linked into a tamper-evident hash chain, and a single seal digest per
closed chain that third parties can re-verify offline.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 3414 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): Postgres connection string or SQLite path
  - ADMIN_KEY_SALT (-admin-salt): Secret for election admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3414)
  - DATABASE_TYPE (-t): postgres or sqlite (default: sqlite)

A .env file in the working directory is loaded automatically.

# Offline Verification

Auditors can verify a chain from a database copy without the serving
process:

	go run main.go -d audit-copy.db -verify-election <id> -verify-category council

Exits 0 when the chain and seal check out, 1 on any integrity failure.

# Architecture

The integrity engine is the core; everything else is plumbing around it:

  - credential: one-use secrets mapped to voting units (hashed at rest)
  - ledger: the append-only, hash-linked ballot chain
  - casting: the exactly-once casting transaction coordinator
  - sealing: seal creation and chain verification
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: Logging, JSON helpers
  - models: Request/response and domain types
  - auth: Secret generation, admin key HMAC
  - db: Schema creation and dialect differences
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
