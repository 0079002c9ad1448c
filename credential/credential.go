// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package credential

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/models"
)

// ErrInvalid covers both unknown secrets and credentials in a non-resolvable
// state. Callers must not let outside observers distinguish the two cases.
var ErrInvalid = errors.New("invalid or consumed credential")

// Store manages credential issuance and lifecycle against the relational
// store. Resolution and retirement run inside the caller's casting
// transaction; issuance owns its own.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewStore(database *sql.DB, dialect db.Dialect) *Store {
	return &Store{db: database, dialect: dialect}
}

// Issue revokes any currently ACTIVE credential for the unit+election,
// generates a fresh 256-bit secret, stores only its hash, and returns the
// raw secret for one-time delivery. Writes an audit event in the same
// transaction.
func (s *Store) Issue(unitID, electionID, issuedBy string) (secret, credentialID string, err error) {
	secret, err = auth.GenerateSecret()
	if err != nil {
		return "", "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	// Lock the unit row first: two concurrent issuers would otherwise each
	// miss the other's uncommitted credential under read-committed and both
	// leave an ACTIVE row
	var lockedUnit string
	err = tx.QueryRow(`SELECT id FROM voting_unit WHERE id = $1`+s.dialect.RowLock(), unitID).Scan(&lockedUnit)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("voting unit %s not found", unitID)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to lock voting unit: %w", err)
	}

	// Re-issuance replaces the prior secret; at most one ACTIVE credential
	// may exist per unit+election
	res, err := tx.Exec(`
		UPDATE credential SET state = $1
		WHERE unit_id = $2 AND election_id = $3 AND state = $4
	`, models.CredentialRevoked, unitID, electionID, models.CredentialActive)
	if err != nil {
		return "", "", fmt.Errorf("failed to revoke prior credential: %w", err)
	}
	revoked, _ := res.RowsAffected()

	credentialID = uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO credential (id, unit_id, election_id, secret_hash, state, issued_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, credentialID, unitID, electionID, auth.HashSecret(secret), models.CredentialActive, now)
	if err != nil {
		return "", "", fmt.Errorf("failed to insert credential: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO audit_event (id, election_id, actor, action, subject, occurred_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), electionID, issuedBy, "credential_issued", unitID, now)
	if err != nil {
		return "", "", fmt.Errorf("failed to write audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit credential issue: %w", err)
	}

	slog.Info("credential issued", "election_id", electionID, "unit_id", unitID, "revoked_prior", revoked)

	return secret, credentialID, nil
}

// Resolve hashes the presented secret and looks the credential up by hash,
// taking a row-level exclusive lock so concurrent casts with the same
// credential serialize. Returns ErrInvalid for unknown hashes; state checks
// are the coordinator's concern.
func (s *Store) Resolve(tx *sql.Tx, secret string) (models.Credential, error) {
	var cred models.Credential
	err := tx.QueryRow(`
		SELECT id, unit_id, election_id, secret_hash, state, issued_unix, consumed_unix
		FROM credential
		WHERE secret_hash = $1`+s.dialect.RowLock(),
		auth.HashSecret(secret),
	).Scan(&cred.ID, &cred.UnitID, &cred.ElectionID, &cred.SecretHash, &cred.State,
		&cred.IssuedAt, &cred.ConsumedAt)

	if err == sql.ErrNoRows {
		return models.Credential{}, ErrInvalid
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to resolve credential: %w", err)
	}
	return cred, nil
}

// Retire transitions a credential ACTIVE → USED within the caller's
// transaction. Idempotent: retiring an already-USED credential is a no-op.
func (s *Store) Retire(tx *sql.Tx, credentialID string) error {
	_, err := tx.Exec(`
		UPDATE credential SET state = $1, consumed_unix = $2
		WHERE id = $3 AND state = $4
	`, models.CredentialUsed, time.Now().Unix(), credentialID, models.CredentialActive)
	if err != nil {
		return fmt.Errorf("failed to retire credential: %w", err)
	}
	return nil
}

// ExpireForElection marks every remaining ACTIVE credential of an election
// EXPIRED. Called when the voting window closes, inside the close
// transaction.
func ExpireForElection(tx *sql.Tx, electionID string) (int64, error) {
	res, err := tx.Exec(`
		UPDATE credential SET state = $1
		WHERE election_id = $2 AND state = $3
	`, models.CredentialExpired, electionID, models.CredentialActive)
	if err != nil {
		return 0, fmt.Errorf("failed to expire credentials: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// History lists a unit's credentials for an election, newest first.
func (s *Store) History(unitID, electionID string) ([]models.Credential, error) {
	rows, err := s.db.Query(`
		SELECT id, unit_id, election_id, secret_hash, state, issued_unix, consumed_unix
		FROM credential
		WHERE unit_id = $1 AND election_id = $2
		ORDER BY issued_unix DESC, id
	`, unitID, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credential history: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		var cred models.Credential
		if err := rows.Scan(&cred.ID, &cred.UnitID, &cred.ElectionID, &cred.SecretHash,
			&cred.State, &cred.IssuedAt, &cred.ConsumedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}
