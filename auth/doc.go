// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides secret generation and key validation for wardvote.

# Credential Secrets

GenerateSecret produces a 256-bit random secret for one-time delivery to a
voter. HashSecret is its storage/lookup form (SHA-256, lowercase hex):

	secret, err := auth.GenerateSecret()
	hash := auth.HashSecret(secret)

The raw secret is never persisted. Resolution always hashes the presented
value and looks up by hash, so neither the database nor query logs ever see
a usable secret.

# Admin Keys

Operator access to an election is gated by an HMAC key derived from the
election ID and a server-side salt:

	key := auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
	err := auth.ValidateAdminKey(electionID, presented, cfg.AdminKeySalt)

Validation uses constant-time comparison.

# IP Hashing

HashIP produces a salted 64-bit hash of a client IP for ballot provenance
metadata without storing raw addresses.
*/
package auth
