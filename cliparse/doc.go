// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3414)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "postgres" or "sqlite" (default: sqlite)
  - AdminKeySalt: Secret for election admin key HMAC (required when serving)
  - VerifyElection/VerifyCategory: offline verify mode

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type
	-admin-salt       Admin key salt
	-verify-election  Run the offline chain verifier and exit
	-verify-category  Category for -verify-election

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	ADMIN_KEY_SALT → -admin-salt

CLI flags take precedence over environment variables.

# Offline Verify Mode

When -verify-election is given, main runs the tamper-evidence verifier
against the configured database copy and exits. ADMIN_KEY_SALT is not
required in this mode: verification is read-only and is meant to be run by
third-party auditors against a ledger snapshot, with no dependency on the
live serving process.
*/
package cliparse
