// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package credential maps one-use opaque secrets to voting units.

A credential is stored only as the SHA-256 hash of its secret; the raw
value exists once, in the Issue return. Lifecycle:

	ACTIVE → USED     both ballot categories recorded (normal path)
	ACTIVE → REVOKED  replaced by re-issuance
	ACTIVE → EXPIRED  election window closed

At most one ACTIVE credential exists per unit+election: Issue revokes the
prior one in the same transaction that inserts the new one.

Resolve takes the caller's transaction and a row-level lock, because it is
always the first step of the casting protocol. An unknown hash yields
ErrInvalid - the same result a consumed credential eventually maps to, so
outside observers cannot probe which secrets exist.
*/
package credential
