// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sealing folds a closed election's ballot chain into a single digest
and re-verifies chains against it.

Seal runs once per (election, category), at election close, by an
authorized operator: it walks the full chain, verifies every link, folds
the output digests in position order, and persists the result. Re-sealing
is rejected, and a chain that fails verification is never sealed.

Verify is the audit half: side-effect free, runnable against any copy of
the database (see the -verify-election CLI mode), reporting every broken
link, hash mismatch, and position gap with its exact position, plus whether
the recomputed fold matches the stored seal.
*/
package sealing
