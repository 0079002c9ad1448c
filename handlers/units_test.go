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

func TestRegisterUnit(t *testing.T) {
	conn, mux, _ := setupServer(t)
	defer conn.Close()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/units", models.RegisterUnitRequest{Address: "12 Elm St"}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.RegisterUnitResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.UnitID == "" {
		t.Fatal("Expected unit_id in response")
	}

	get := httptest.NewRecorder()
	mux.ServeHTTP(get, testutil.MakeRequest("GET", "/units/"+resp.UnitID, nil, nil))
	testutil.AssertStatus(t, get, http.StatusOK)

	var unit models.Unit
	testutil.AssertJSON(t, get, &unit)
	if unit.Address != "12 Elm St" {
		t.Errorf("Expected address to round-trip, got %s", unit.Address)
	}

	// One unit per address
	dup := httptest.NewRecorder()
	mux.ServeHTTP(dup, testutil.MakeRequest("POST", "/units", models.RegisterUnitRequest{Address: "12 Elm St"}, nil))
	testutil.AssertStatus(t, dup, http.StatusConflict)
}

func TestRegisterUnit_MissingAddress(t *testing.T) {
	conn, mux, _ := setupServer(t)
	defer conn.Close()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/units", models.RegisterUnitRequest{}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetUnit_NotFound(t *testing.T) {
	conn, mux, _ := setupServer(t)
	defer conn.Close()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/units/nonexistent", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestIssueCredential(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	electionID, adminKey := testutil.CreateTestElection(t, conn, cfg, "open")
	council := testutil.AddTestChoice(t, conn, electionID, models.CategoryCouncil, "Candidate A")
	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")
	admin := map[string]string{"X-Admin-Key": adminKey}
	path := "/elections/" + electionID + "/units/" + unitID + "/credentials"

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", path, nil, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.IssueCredentialResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.CredentialID == "" || len(resp.Secret) != 43 {
		t.Fatalf("Expected credential_id and 43 character secret, got %+v", resp)
	}

	// The issued secret casts a real ballot
	cast := httptest.NewRecorder()
	mux.ServeHTTP(cast, testutil.MakeRequest("POST", "/elections/"+electionID+"/ballots",
		models.CastBallotRequest{Secret: resp.Secret, Category: "council", ChoiceID: council}, nil))
	testutil.AssertStatus(t, cast, http.StatusOK)

	var castResp models.CastBallotResponse
	testutil.AssertJSON(t, cast, &castResp)
	if castResp.Outcome != models.CastAccepted {
		t.Errorf("Expected accepted cast with issued secret, got %s", castResp.Outcome)
	}
}

func TestIssueCredential_Rejections(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	openElection, adminKey := testutil.CreateTestElection(t, conn, cfg, "open")
	closedElection, closedKey := testutil.CreateTestElection(t, conn, cfg, "closed")
	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")

	// No admin key
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST",
		"/elections/"+openElection+"/units/"+unitID+"/credentials", nil, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	// Closed election
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST",
		"/elections/"+closedElection+"/units/"+unitID+"/credentials", nil,
		map[string]string{"X-Admin-Key": closedKey}))
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Unknown unit
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST",
		"/elections/"+openElection+"/units/nonexistent/credentials", nil,
		map[string]string{"X-Admin-Key": adminKey}))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetCredentials_History(t *testing.T) {
	conn, mux, cfg := setupServer(t)
	defer conn.Close()

	electionID, adminKey := testutil.CreateTestElection(t, conn, cfg, "open")
	unitID := testutil.CreateTestUnit(t, conn, "12 Elm St")
	admin := map[string]string{"X-Admin-Key": adminKey}
	path := "/elections/" + electionID + "/units/" + unitID + "/credentials"

	// Issue twice; the first credential is revoked by the second
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest("POST", path, nil, admin))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", path, nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	var creds []models.Credential
	testutil.AssertJSON(t, w, &creds)
	if len(creds) != 2 {
		t.Fatalf("Expected 2 credentials in history, got %d", len(creds))
	}

	states := map[string]int{}
	for _, c := range creds {
		states[c.State]++
		if c.SecretHash != "" {
			t.Error("Credential history must never expose secret hashes")
		}
	}
	if states[models.CredentialActive] != 1 || states[models.CredentialRevoked] != 1 {
		t.Errorf("Expected one ACTIVE and one REVOKED, got %v", states)
	}

	// History is admin-gated
	unauth := httptest.NewRecorder()
	mux.ServeHTTP(unauth, testutil.MakeRequest("GET", path, nil, nil))
	testutil.AssertStatus(t, unauth, http.StatusUnauthorized)
}
