// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardvote/wardvote/models"
	"github.com/wardvote/wardvote/testutil"
)

func TestCastBallot(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	electionID, _ := testutil.CreateTestElection(t, conn, cfg, "open")
	council := testutil.AddTestChoice(t, conn, electionID, models.CategoryCouncil, "Candidate A")
	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")
	secret, _ := testutil.IssueTestCredential(t, conn, unitID, electionID)

	path := "/elections/" + electionID + "/ballots"

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", path, models.CastBallotRequest{
		Secret: secret, Category: "council", ChoiceID: council,
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CastBallotResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.CastAccepted {
		t.Fatalf("Expected accepted, got %s", resp.Outcome)
	}
	if resp.Position != 1 {
		t.Errorf("Expected position 1, got %d", resp.Position)
	}
	if len(resp.Digest) != 64 {
		t.Errorf("Expected 64 character digest, got %q", resp.Digest)
	}

	// A double submit is a routine 200 with already_voted
	retry := httptest.NewRecorder()
	mux.ServeHTTP(retry, testutil.MakeRequest("POST", path, models.CastBallotRequest{
		Secret: secret, Category: "council", ChoiceID: council,
	}, nil))
	testutil.AssertStatus(t, retry, http.StatusOK)

	var retryResp models.CastBallotResponse
	testutil.AssertJSON(t, retry, &retryResp)
	if retryResp.Outcome != models.CastAlreadyVoted {
		t.Errorf("Expected already_voted, got %s", retryResp.Outcome)
	}
	if retryResp.Position != 0 || retryResp.Digest != "" {
		t.Error("Rejected casts must not leak chain details")
	}
}

func TestCastBallot_UnknownSecret(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	electionID, _ := testutil.CreateTestElection(t, conn, cfg, "open")
	council := testutil.AddTestChoice(t, conn, electionID, models.CategoryCouncil, "Candidate A")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/elections/"+electionID+"/ballots",
		models.CastBallotRequest{Secret: "guess", Category: "council", ChoiceID: council}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CastBallotResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Outcome != models.CastInvalidCredential {
		t.Errorf("Expected invalid_credential, got %s", resp.Outcome)
	}
}

func TestCastBallot_Validation(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	openElection, _ := testutil.CreateTestElection(t, conn, cfg, "open")
	council := testutil.AddTestChoice(t, conn, openElection, models.CategoryCouncil, "Candidate A")
	fiscal := testutil.AddTestChoice(t, conn, openElection, models.CategoryFiscal, "Budget Plan 1")
	draftElection, _ := testutil.CreateTestElection(t, conn, cfg, "draft")

	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")
	secret, _ := testutil.IssueTestCredential(t, conn, unitID, openElection)

	testCases := []struct {
		name     string
		path     string
		body     models.CastBallotRequest
		expected int
	}{
		{
			name:     "missing secret",
			path:     "/elections/" + openElection + "/ballots",
			body:     models.CastBallotRequest{Category: "council", ChoiceID: council},
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown category",
			path:     "/elections/" + openElection + "/ballots",
			body:     models.CastBallotRequest{Secret: secret, Category: "mayor", ChoiceID: council},
			expected: http.StatusBadRequest,
		},
		{
			name:     "missing choice",
			path:     "/elections/" + openElection + "/ballots",
			body:     models.CastBallotRequest{Secret: secret, Category: "council"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "choice from other category",
			path:     "/elections/" + openElection + "/ballots",
			body:     models.CastBallotRequest{Secret: secret, Category: "council", ChoiceID: fiscal},
			expected: http.StatusBadRequest,
		},
		{
			name:     "election not found",
			path:     "/elections/nonexistent/ballots",
			body:     models.CastBallotRequest{Secret: secret, Category: "council", ChoiceID: council},
			expected: http.StatusNotFound,
		},
		{
			name:     "election not open",
			path:     "/elections/" + draftElection + "/ballots",
			body:     models.CastBallotRequest{Secret: secret, Category: "council", ChoiceID: council},
			expected: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.MakeRequest("POST", tc.path, tc.body, nil))
			testutil.AssertStatus(t, w, tc.expected)
		})
	}

	// None of the rejected requests reached the chain
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ballot_record`).Scan(&count); err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 ballots, got %d", count)
	}
}

func TestCastBallot_ClosedElectionRejectsExpiredCredential(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	electionID, adminKey := testutil.CreateTestElection(t, conn, cfg, "open")
	council := testutil.AddTestChoice(t, conn, electionID, models.CategoryCouncil, "Candidate A")
	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")
	secret, _ := testutil.IssueTestCredential(t, conn, unitID, electionID)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil,
		map[string]string{"X-Admin-Key": adminKey}))
	testutil.AssertStatus(t, w, http.StatusOK)

	// The window is shut before the coordinator is ever reached
	cast := httptest.NewRecorder()
	mux.ServeHTTP(cast, testutil.MakeRequest("POST", "/elections/"+electionID+"/ballots",
		models.CastBallotRequest{Secret: secret, Category: "council", ChoiceID: council}, nil))
	testutil.AssertStatus(t, cast, http.StatusConflict)
}
