// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package casting

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wardvote/wardvote/credential"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/ledger"
	"github.com/wardvote/wardvote/models"
)

// Request is one casting attempt as handed over by the HTTP layer, which has
// already validated that the choice belongs to (election, category).
type Request struct {
	Secret     string
	ElectionID string
	Category   models.Category
	ChoiceID   string
	IPHash     *string
	UserAgent  *string
}

// Result is the terminal outcome of a cast. Outcome is always one of the
// models.Cast* constants; Record is populated only for accepted casts.
type Result struct {
	Outcome string
	Record  models.BallotRecord
}

// Coordinator admits at most one ballot per unit per category, exactly once,
// under concurrent requests. All exclusivity lives in the database: row
// locks on the credential, a per-chain lock for the append, and the
// uniqueness constraints as the final backstop. No in-process state, so it
// survives restarts mid-ballot and runs identically across server
// instances.
type Coordinator struct {
	db          *sql.DB
	dialect     db.Dialect
	credentials *credential.Store
}

func NewCoordinator(database *sql.DB, dialect db.Dialect, credentials *credential.Store) *Coordinator {
	return &Coordinator{db: database, dialect: dialect, credentials: credentials}
}

// Cast runs the full casting protocol in one transaction:
//
//  1. Lock the (election, category) chain so concurrent appends serialize.
//  2. Resolve the credential by hashed secret with a row-level lock.
//  3. Map non-ACTIVE states to their terminal outcomes.
//  4. Append the next chain link inside the same transaction.
//  5. Translate a uniqueness violation on (election, category, unit) to
//     already_voted - the backstop for two credentials of the same unit
//     racing past their row locks after a re-issue.
//  6. Retire the credential to USED only once both categories have records.
//  7. Commit; anything unexpected rolls back wholesale so no partial ballot
//     is ever visible.
//
// Retried casts (browser refresh, double submit) always land on
// already_voted, never a duplicate chain entry.
func (c *Coordinator) Cast(req Request) (Result, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := c.dialect.LockChain(tx, req.ElectionID, string(req.Category)); err != nil {
		return Result{}, err
	}

	cred, err := c.credentials.Resolve(tx, req.Secret)
	if err != nil {
		if errors.Is(err, credential.ErrInvalid) {
			return Result{Outcome: models.CastInvalidCredential}, nil
		}
		return Result{}, err
	}

	// A credential for the wrong election is indistinguishable from an
	// unknown one to the caller
	if cred.ElectionID != req.ElectionID {
		return Result{Outcome: models.CastInvalidCredential}, nil
	}

	switch cred.State {
	case models.CredentialActive:
		// proceed
	case models.CredentialUsed:
		return Result{Outcome: models.CastAlreadyVoted}, nil
	default: // REVOKED, EXPIRED
		return Result{Outcome: models.CastInvalidCredential}, nil
	}

	rec, err := ledger.Append(tx, ledger.AppendRequest{
		ElectionID:   req.ElectionID,
		Category:     req.Category,
		UnitID:       cred.UnitID,
		ChoiceID:     req.ChoiceID,
		CredentialID: cred.ID,
		CastAt:       time.Now().Unix(),
		IPHash:       req.IPHash,
		UserAgent:    req.UserAgent,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			// The unit already has a ballot for this category; expected
			// under retry, not an error
			return Result{Outcome: models.CastAlreadyVoted}, nil
		}
		return Result{}, fmt.Errorf("failed to append ballot: %w", err)
	}

	done, err := categoriesRecorded(tx, req.ElectionID, cred.UnitID)
	if err != nil {
		return Result{}, err
	}
	if done == int64(len(models.Categories)) {
		if err := c.credentials.Retire(tx, cred.ID); err != nil {
			return Result{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return Result{Outcome: models.CastAlreadyVoted}, nil
		}
		return Result{}, fmt.Errorf("failed to commit cast: %w", err)
	}

	slog.Info("ballot cast",
		"election_id", req.ElectionID,
		"category", req.Category,
		"position", rec.Position,
	)

	return Result{Outcome: models.CastAccepted, Record: rec}, nil
}

// categoriesRecorded counts the distinct categories a unit has ballots for
// in this election, read within the casting transaction.
func categoriesRecorded(tx *sql.Tx, electionID, unitID string) (int64, error) {
	var n int64
	err := tx.QueryRow(`
		SELECT COUNT(DISTINCT category) FROM ballot_record
		WHERE election_id = $1 AND unit_id = $2
	`, electionID, unitID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recorded categories: %w", err)
	}
	return n, nil
}
