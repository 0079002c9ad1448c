// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/casting"
	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/credential"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. A single pooled connection pins the memory database for the
// test's lifetime and serializes writers the way SQLite itself would.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3414,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
	}
}

// Dialect returns the dialect matching SetupTestDB.
func Dialect() db.Dialect {
	return db.SQLite
}

// NewTestEngine wires the integrity engine components over a test database.
func NewTestEngine(conn *sql.DB) (*credential.Store, *casting.Coordinator) {
	store := credential.NewStore(conn, db.SQLite)
	return store, casting.NewCoordinator(conn, db.SQLite, store)
}

// CreateTestElection creates an election and returns its ID and admin key.
// status should be "draft", "open", or "closed".
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (electionID, adminKey string) {
	t.Helper()

	electionID = uuid.NewString()
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)

	now := time.Now().Unix()
	var openedAt, closedAt *int64
	if status == models.StatusOpen || status == models.StatusClosed {
		openedAt = &now
	}
	if status == models.StatusClosed {
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, name, status, created_unix, opened_unix, closed_unix)
		VALUES ($1, 'Test Election', $2, $3, $4, $5)
	`, electionID, status, now, openedAt, closedAt)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey
}

// AddTestChoice adds a choice to an election category and returns its ID
func AddTestChoice(t *testing.T, conn *sql.DB, electionID string, category models.Category, label string) string {
	t.Helper()

	choiceID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO choice (id, election_id, category, label)
		VALUES ($1, $2, $3, $4)
	`, choiceID, electionID, category, label)
	if err != nil {
		t.Fatalf("Failed to create test choice: %v", err)
	}

	return choiceID
}

// CreateTestUnit registers a voting unit and returns its ID
func CreateTestUnit(t *testing.T, conn *sql.DB, address string) string {
	t.Helper()

	unitID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO voting_unit (id, address, created_unix)
		VALUES ($1, $2, $3)
	`, unitID, address, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test unit: %v", err)
	}

	return unitID
}

// IssueTestCredential inserts an ACTIVE credential directly and returns the
// raw secret and credential ID
func IssueTestCredential(t *testing.T, conn *sql.DB, unitID, electionID string) (secret, credentialID string) {
	t.Helper()

	secret, err := auth.GenerateSecret()
	if err != nil {
		t.Fatalf("Failed to generate test secret: %v", err)
	}

	credentialID = uuid.NewString()
	_, err = conn.Exec(`
		INSERT INTO credential (id, unit_id, election_id, secret_hash, state, issued_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, credentialID, unitID, electionID, auth.HashSecret(secret), models.CredentialActive, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test credential: %v", err)
	}

	return secret, credentialID
}

// CastTestBallot casts a ballot through the coordinator and fails the test
// unless the outcome is accepted
func CastTestBallot(t *testing.T, conn *sql.DB, secret, electionID string, category models.Category, choiceID string) models.BallotRecord {
	t.Helper()

	_, coordinator := NewTestEngine(conn)
	result, err := coordinator.Cast(casting.Request{
		Secret:     secret,
		ElectionID: electionID,
		Category:   category,
		ChoiceID:   choiceID,
	})
	if err != nil {
		t.Fatalf("Failed to cast test ballot: %v", err)
	}
	if result.Outcome != models.CastAccepted {
		t.Fatalf("Expected accepted cast, got %s", result.Outcome)
	}

	return result.Record
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
