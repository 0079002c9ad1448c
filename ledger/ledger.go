// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wardvote/wardvote/models"
)

// GenesisDigest is the fixed predecessor digest of a chain's first record.
const GenesisDigest = "GENESIS"

// PayloadVersion marks the canonical payload contract. Any change to the
// field set or serialization below must introduce a new version string so
// chains written under the old rule stay verifiable.
const PayloadVersion = "wardvote/v1"

// Querier is the read surface Walk and Tail need. Both *sql.DB and *sql.Tx
// satisfy it, which is what lets the verifier run against a plain database
// copy while Append runs inside the casting transaction.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// AppendRequest carries everything Append persists. The caller owns the
// transaction and must already hold the chain lock for (election, category).
type AppendRequest struct {
	ElectionID   string
	Category     models.Category
	UnitID       string
	ChoiceID     string
	CredentialID string
	CastAt       int64 // unix seconds UTC
	IPHash       *string
	UserAgent    *string
}

// CanonicalPayload builds the exact byte sequence the record digest is
// defined over. An independent verifier must be able to reproduce it from
// the persisted columns alone, so the contract is strict: the fields below,
// in this order, one per line, newline-joined; the timestamp and position as
// decimal integers; no trailing newline.
func CanonicalPayload(electionID, unitID, choiceID, credentialID string, castUnix int64, prevDigest string, position int64) []byte {
	fields := []string{
		PayloadVersion,
		electionID,
		unitID,
		choiceID,
		credentialID,
		strconv.FormatInt(castUnix, 10),
		prevDigest,
		strconv.FormatInt(position, 10),
	}
	return []byte(strings.Join(fields, "\n"))
}

// RecordDigest recomputes a record's output digest from its stored fields.
func RecordDigest(rec models.BallotRecord) string {
	payload := CanonicalPayload(rec.ElectionID, rec.UnitID, rec.ChoiceID, rec.CredentialID,
		rec.CastAt, rec.PrevDigest, rec.Position)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Tail returns the highest chain position and its digest for the given
// (election, category), or (0, GenesisDigest) for an empty chain.
func Tail(q Querier, electionID string, category models.Category) (int64, string, error) {
	var pos int64
	var digest string
	err := q.QueryRow(`
		SELECT position, digest FROM ballot_record
		WHERE election_id = $1 AND category = $2
		ORDER BY position DESC LIMIT 1
	`, electionID, category).Scan(&pos, &digest)

	if err == sql.ErrNoRows {
		return 0, GenesisDigest, nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to read chain tail: %w", err)
	}
	return pos, digest, nil
}

// Append computes and persists the next link of the (election, category)
// chain inside the caller's transaction. It never retries: a constraint
// violation or lock failure propagates so the whole cast rolls back.
func Append(tx *sql.Tx, req AppendRequest) (models.BallotRecord, error) {
	tailPos, prevDigest, err := Tail(tx, req.ElectionID, req.Category)
	if err != nil {
		return models.BallotRecord{}, err
	}

	rec := models.BallotRecord{
		ID:           uuid.NewString(),
		ElectionID:   req.ElectionID,
		Category:     req.Category,
		UnitID:       req.UnitID,
		ChoiceID:     req.ChoiceID,
		CredentialID: req.CredentialID,
		Position:     tailPos + 1,
		PrevDigest:   prevDigest,
		CastAt:       req.CastAt,
		IPHash:       req.IPHash,
		UserAgent:    req.UserAgent,
	}
	rec.Digest = RecordDigest(rec)

	_, err = tx.Exec(`
		INSERT INTO ballot_record (id, election_id, category, unit_id, choice_id, credential_id,
			position, prev_digest, digest, cast_unix, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, rec.ElectionID, rec.Category, rec.UnitID, rec.ChoiceID, rec.CredentialID,
		rec.Position, rec.PrevDigest, rec.Digest, rec.CastAt, rec.IPHash, rec.UserAgent)
	if err != nil {
		return models.BallotRecord{}, err
	}

	return rec, nil
}

// Walk reads the full chain for (election, category) in position order.
func Walk(q Querier, electionID string, category models.Category) ([]models.BallotRecord, error) {
	rows, err := q.Query(`
		SELECT id, election_id, category, unit_id, choice_id, credential_id,
			position, prev_digest, digest, cast_unix, ip_hash, user_agent
		FROM ballot_record
		WHERE election_id = $1 AND category = $2
		ORDER BY position ASC
	`, electionID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain: %w", err)
	}
	defer rows.Close()

	var records []models.BallotRecord
	for rows.Next() {
		var rec models.BallotRecord
		if err := rows.Scan(&rec.ID, &rec.ElectionID, &rec.Category, &rec.UnitID, &rec.ChoiceID,
			&rec.CredentialID, &rec.Position, &rec.PrevDigest, &rec.Digest, &rec.CastAt,
			&rec.IPHash, &rec.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan ballot record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chain: %w", err)
	}

	return records, nil
}

// VerifyRecords replays the digest rule over a chain read in position order
// and reports every integrity failure with its exact position. It checks,
// per record: positions are gap-free starting at 1, the stored previous
// digest equals the prior record's output digest (GENESIS at position 1),
// and the stored output digest matches the recomputation.
func VerifyRecords(records []models.BallotRecord) []models.VerifyFailure {
	var failures []models.VerifyFailure

	expectedPos := int64(1)
	prevDigest := GenesisDigest
	for _, rec := range records {
		if rec.Position != expectedPos {
			failures = append(failures, models.VerifyFailure{
				Position: rec.Position,
				Reason:   models.FailurePositionGap,
				Detail:   fmt.Sprintf("expected position %d, found %d", expectedPos, rec.Position),
			})
			// Resync so one gap does not cascade into spurious reports
			expectedPos = rec.Position
		}
		if rec.PrevDigest != prevDigest {
			failures = append(failures, models.VerifyFailure{
				Position: rec.Position,
				Reason:   models.FailureBrokenLink,
				Detail:   fmt.Sprintf("stored prev digest %s does not match predecessor %s", rec.PrevDigest, prevDigest),
			})
		}
		if recomputed := RecordDigest(rec); recomputed != rec.Digest {
			failures = append(failures, models.VerifyFailure{
				Position: rec.Position,
				Reason:   models.FailureHashMismatch,
				Detail:   fmt.Sprintf("stored digest %s, recomputed %s", rec.Digest, recomputed),
			})
		}
		prevDigest = rec.Digest
		expectedPos++
	}

	return failures
}

// FoldDigests folds an ordered chain into the single seal digest: every
// record's output digest concatenated in position order, hashed once.
func FoldDigests(records []models.BallotRecord) string {
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(rec.Digest)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// FoldRecomputedDigests folds the chain the same way FoldDigests does, but
// over digests recomputed from each record's stored fields. The verifier
// compares the seal against this fold: a field edited after sealing changes
// the recomputation even when the stored digest column was left untouched.
func FoldRecomputedDigests(records []models.BallotRecord) string {
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(RecordDigest(rec))
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
