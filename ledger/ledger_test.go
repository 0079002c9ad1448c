// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"fmt"
	"testing"

	"github.com/wardvote/wardvote/ledger"
	"github.com/wardvote/wardvote/models"
	"github.com/wardvote/wardvote/testutil"
)

func TestCanonicalPayload_ExactBytes(t *testing.T) {
	payload := ledger.CanonicalPayload("e1", "u1", "c1", "cr1", 1724630400, "GENESIS", 1)

	expected := "wardvote/v1\ne1\nu1\nc1\ncr1\n1724630400\nGENESIS\n1"
	if string(payload) != expected {
		t.Errorf("Canonical payload mismatch.\nExpected: %q\nGot:      %q", expected, string(payload))
	}
}

func TestRecordDigest_Deterministic(t *testing.T) {
	rec := models.BallotRecord{
		ElectionID:   "e1",
		UnitID:       "u1",
		ChoiceID:     "c1",
		CredentialID: "cr1",
		Position:     1,
		PrevDigest:   ledger.GenesisDigest,
		CastAt:       1724630400,
	}

	d1 := ledger.RecordDigest(rec)
	d2 := ledger.RecordDigest(rec)

	if d1 != d2 {
		t.Error("RecordDigest is not deterministic")
	}
	if len(d1) != 64 {
		t.Errorf("Expected 64 character hex digest, got %d", len(d1))
	}

	// Any field change must change the digest
	changed := rec
	changed.ChoiceID = "c2"
	if ledger.RecordDigest(changed) == d1 {
		t.Error("Digest unchanged after field mutation")
	}
}

func TestAppend_GenesisAndLinking(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	electionID, _ := testutil.CreateTestElection(t, db, cfg, "open")
	choiceID := testutil.AddTestChoice(t, db, electionID, models.CategoryCouncil, "Candidate A")
	unit1 := testutil.CreateTestUnit(t, db, "12 Elm St")
	unit2 := testutil.CreateTestUnit(t, db, "14 Elm St")
	_, cred1 := testutil.IssueTestCredential(t, db, unit1, electionID)
	_, cred2 := testutil.IssueTestCredential(t, db, unit2, electionID)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	first, err := ledger.Append(tx, ledger.AppendRequest{
		ElectionID:   electionID,
		Category:     models.CategoryCouncil,
		UnitID:       unit1,
		ChoiceID:     choiceID,
		CredentialID: cred1,
		CastAt:       1724630400,
	})
	if err != nil {
		t.Fatalf("First append failed: %v", err)
	}

	if first.Position != 1 {
		t.Errorf("Expected position 1, got %d", first.Position)
	}
	if first.PrevDigest != ledger.GenesisDigest {
		t.Errorf("Expected GENESIS prev digest, got %s", first.PrevDigest)
	}

	second, err := ledger.Append(tx, ledger.AppendRequest{
		ElectionID:   electionID,
		Category:     models.CategoryCouncil,
		UnitID:       unit2,
		ChoiceID:     choiceID,
		CredentialID: cred2,
		CastAt:       1724630460,
	})
	if err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	if second.Position != 2 {
		t.Errorf("Expected position 2, got %d", second.Position)
	}
	if second.PrevDigest != first.Digest {
		t.Errorf("Expected prev digest %s, got %s", first.Digest, second.PrevDigest)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// The persisted chain must verify clean
	records, err := ledger.Walk(db, electionID, models.CategoryCouncil)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if failures := ledger.VerifyRecords(records); len(failures) != 0 {
		t.Errorf("Expected clean verification, got %+v", failures)
	}
}

func TestAppend_ChainsAreIndependentPerCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	electionID, _ := testutil.CreateTestElection(t, db, cfg, "open")
	council := testutil.AddTestChoice(t, db, electionID, models.CategoryCouncil, "Candidate A")
	fiscal := testutil.AddTestChoice(t, db, electionID, models.CategoryFiscal, "Budget Plan 1")
	unitID := testutil.CreateTestUnit(t, db, "12 Elm St")
	_, credID := testutil.IssueTestCredential(t, db, unitID, electionID)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	councilRec, err := ledger.Append(tx, ledger.AppendRequest{
		ElectionID: electionID, Category: models.CategoryCouncil,
		UnitID: unitID, ChoiceID: council, CredentialID: credID, CastAt: 1724630400,
	})
	if err != nil {
		t.Fatalf("Council append failed: %v", err)
	}

	fiscalRec, err := ledger.Append(tx, ledger.AppendRequest{
		ElectionID: electionID, Category: models.CategoryFiscal,
		UnitID: unitID, ChoiceID: fiscal, CredentialID: credID, CastAt: 1724630401,
	})
	if err != nil {
		t.Fatalf("Fiscal append failed: %v", err)
	}

	// Each category runs its own chain from position 1 and GENESIS
	if councilRec.Position != 1 || fiscalRec.Position != 1 {
		t.Errorf("Expected both chains at position 1, got %d and %d", councilRec.Position, fiscalRec.Position)
	}
	if fiscalRec.PrevDigest != ledger.GenesisDigest {
		t.Errorf("Fiscal chain should start from GENESIS, got %s", fiscalRec.PrevDigest)
	}
}

// makeChain builds a valid n-record in-memory chain
func makeChain(n int) []models.BallotRecord {
	records := make([]models.BallotRecord, 0, n)
	prev := ledger.GenesisDigest
	for i := 1; i <= n; i++ {
		rec := models.BallotRecord{
			ID:           fmt.Sprintf("b%d", i),
			ElectionID:   "e1",
			Category:     models.CategoryCouncil,
			UnitID:       fmt.Sprintf("u%d", i),
			ChoiceID:     "c1",
			CredentialID: fmt.Sprintf("cr%d", i),
			Position:     int64(i),
			PrevDigest:   prev,
			CastAt:       1724630400 + int64(i),
		}
		rec.Digest = ledger.RecordDigest(rec)
		prev = rec.Digest
		records = append(records, rec)
	}
	return records
}

func TestVerifyRecords_CleanChain(t *testing.T) {
	if failures := ledger.VerifyRecords(makeChain(5)); len(failures) != 0 {
		t.Errorf("Expected no failures, got %+v", failures)
	}
	if failures := ledger.VerifyRecords(nil); len(failures) != 0 {
		t.Errorf("Empty chain should verify clean, got %+v", failures)
	}
}

func TestVerifyRecords_TamperDetection(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(records []models.BallotRecord)
		position int64
		reason   string
	}{
		{
			name:     "mutated choice",
			mutate:   func(r []models.BallotRecord) { r[2].ChoiceID = "c2" },
			position: 3,
			reason:   models.FailureHashMismatch,
		},
		{
			name:     "mutated timestamp",
			mutate:   func(r []models.BallotRecord) { r[1].CastAt += 60 },
			position: 2,
			reason:   models.FailureHashMismatch,
		},
		{
			name:     "mutated prev digest",
			mutate:   func(r []models.BallotRecord) { r[3].PrevDigest = "deadbeef" },
			position: 4,
			reason:   models.FailureBrokenLink,
		},
		{
			name:     "mutated output digest",
			mutate:   func(r []models.BallotRecord) { r[0].Digest = "deadbeef" },
			position: 1,
			reason:   models.FailureHashMismatch,
		},
		{
			name:     "position gap",
			mutate:   func(r []models.BallotRecord) { r[3].Position = 7 },
			position: 7,
			reason:   models.FailurePositionGap,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := makeChain(5)
			tc.mutate(records)

			failures := ledger.VerifyRecords(records)
			if len(failures) == 0 {
				t.Fatal("Expected tampering to be detected")
			}

			found := false
			for _, f := range failures {
				if f.Position == tc.position && f.Reason == tc.reason {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected failure %s at position %d, got %+v", tc.reason, tc.position, failures)
			}
		})
	}
}

func TestFoldDigests(t *testing.T) {
	records := makeChain(3)

	fold := ledger.FoldDigests(records)
	if len(fold) != 64 {
		t.Errorf("Expected 64 character fold digest, got %d", len(fold))
	}
	if ledger.FoldDigests(records) != fold {
		t.Error("FoldDigests is not deterministic")
	}

	// Order matters: a reordered chain folds differently
	swapped := []models.BallotRecord{records[1], records[0], records[2]}
	if ledger.FoldDigests(swapped) == fold {
		t.Error("Expected different fold for reordered chain")
	}

	// A single mutated digest changes the fold
	records[1].Digest = "deadbeef"
	if ledger.FoldDigests(records) == fold {
		t.Error("Expected different fold after digest mutation")
	}
}

func TestFoldRecomputedDigests(t *testing.T) {
	records := makeChain(3)

	// On an intact chain the recomputed fold equals the stored-digest fold
	if ledger.FoldRecomputedDigests(records) != ledger.FoldDigests(records) {
		t.Error("Recomputed fold must match stored fold for an intact chain")
	}

	// A field edit that leaves the stored digest column untouched still
	// changes the recomputed fold
	records[1].ChoiceID = "swapped"
	if ledger.FoldRecomputedDigests(records) == ledger.FoldDigests(records) {
		t.Error("Expected recomputed fold to diverge after field-only mutation")
	}
}
