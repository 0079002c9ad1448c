// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sealing

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wardvote/wardvote/ledger"
	"github.com/wardvote/wardvote/models"
)

var (
	// ErrAlreadySealed - a seal exists for this (election, category);
	// seals are created exactly once and never mutated.
	ErrAlreadySealed = errors.New("chain already sealed")

	// ErrElectionNotClosed - sealing is only valid once the voting window
	// has closed. This is an engine precondition, not a UI convention.
	ErrElectionNotClosed = errors.New("election is not closed")

	// ErrChainInvalid - the chain failed verification; a broken chain is
	// never sealed over.
	ErrChainInvalid = errors.New("chain failed integrity verification")
)

// Manager computes and persists seal digests and re-verifies chains against
// them.
type Manager struct {
	db *sql.DB
}

func NewManager(database *sql.DB) *Manager {
	return &Manager{db: database}
}

// Seal folds the full ordered chain for (election, category) into a single
// digest and persists it. It refuses to run while the election is open,
// refuses to re-seal, and verifies every link first exactly as Verify
// would - sealing over a broken chain would launder the tampering.
func (m *Manager) Seal(electionID string, category models.Category, sealedBy string) (models.Seal, error) {
	tx, err := m.db.Begin()
	if err != nil {
		return models.Seal{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM election WHERE id = $1`, electionID).Scan(&status)
	if err == sql.ErrNoRows {
		return models.Seal{}, fmt.Errorf("election %s not found", electionID)
	}
	if err != nil {
		return models.Seal{}, fmt.Errorf("failed to query election: %w", err)
	}
	if status != models.StatusClosed {
		return models.Seal{}, ErrElectionNotClosed
	}

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM seal WHERE election_id = $1 AND category = $2)
	`, electionID, category).Scan(&exists)
	if err != nil {
		return models.Seal{}, fmt.Errorf("failed to check existing seal: %w", err)
	}
	if exists {
		return models.Seal{}, ErrAlreadySealed
	}

	records, err := ledger.Walk(tx, electionID, category)
	if err != nil {
		return models.Seal{}, err
	}
	if failures := ledger.VerifyRecords(records); len(failures) > 0 {
		slog.Error("refusing to seal broken chain",
			"election_id", electionID,
			"category", category,
			"first_failure_position", failures[0].Position,
			"reason", failures[0].Reason,
		)
		return models.Seal{}, ErrChainInvalid
	}

	seal := models.Seal{
		ElectionID:  electionID,
		Category:    category,
		Digest:      ledger.FoldDigests(records),
		RecordCount: int64(len(records)),
		SealedAt:    time.Now().Unix(),
		SealedBy:    sealedBy,
	}

	_, err = tx.Exec(`
		INSERT INTO seal (election_id, category, digest, record_count, sealed_unix, sealed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, seal.ElectionID, seal.Category, seal.Digest, seal.RecordCount, seal.SealedAt, seal.SealedBy)
	if err != nil {
		return models.Seal{}, fmt.Errorf("failed to insert seal: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO audit_event (id, election_id, actor, action, subject, occurred_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), electionID, sealedBy, "chain_sealed", string(category), seal.SealedAt)
	if err != nil {
		return models.Seal{}, fmt.Errorf("failed to write audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Seal{}, fmt.Errorf("failed to commit seal: %w", err)
	}

	slog.Info("chain sealed",
		"election_id", electionID,
		"category", category,
		"records", seal.RecordCount,
		"digest", seal.Digest,
	)

	return seal, nil
}

// Verify replays the whole chain for (election, category) and compares the
// fold against the stored seal, if any. It is read-only and side-effect
// free, and takes a plain Querier so it can run against any copy of the
// ledger with no dependency on the live serving process.
func Verify(q ledger.Querier, electionID string, category models.Category) (models.VerifyReport, error) {
	records, err := ledger.Walk(q, electionID, category)
	if err != nil {
		return models.VerifyReport{}, err
	}

	// The fold is taken over recomputed digests, not the stored column: an
	// edit that left the stored digest intact must still break the seal
	// comparison, not just the per-record hash check.
	report := models.VerifyReport{
		ElectionID:  electionID,
		Category:    category,
		RecordCount: int64(len(records)),
		Failures:    ledger.VerifyRecords(records),
		FoldDigest:  ledger.FoldRecomputedDigests(records),
	}

	var sealDigest string
	err = q.QueryRow(`
		SELECT digest FROM seal WHERE election_id = $1 AND category = $2
	`, electionID, category).Scan(&sealDigest)
	switch {
	case err == sql.ErrNoRows:
		report.SealStatus = models.SealNone
	case err != nil:
		return models.VerifyReport{}, fmt.Errorf("failed to query seal: %w", err)
	case sealDigest == report.FoldDigest:
		report.SealStatus = models.SealMatch
	default:
		report.SealStatus = models.SealMismatch
	}

	report.Valid = len(report.Failures) == 0 && report.SealStatus != models.SealMismatch
	return report, nil
}

// Verify is the Manager-bound form for the serving path.
func (m *Manager) Verify(electionID string, category models.Category) (models.VerifyReport, error) {
	return Verify(m.db, electionID, category)
}
