// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardvote/wardvote/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, testutil.Dialect(), cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, testutil.Dialect(), cfg)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "wardvote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, testutil.Dialect(), cfg)

	// Test that routes respond (handler is invoked)
	// Note: Some routes return 4xx when data doesn't exist, which is valid handler behavior
	testCases := []struct {
		method string
		path   string
	}{
		// Health and root
		{"GET", "/health"},
		{"GET", "/"},

		// Election management routes (these use {id} param and may return auth errors)
		{"POST", "/elections"},
		{"GET", "/elections/test-id"},
		{"POST", "/elections/test-id/choices"},
		{"POST", "/elections/test-id/open"},
		{"POST", "/elections/test-id/close"},
		{"GET", "/elections/test-id/audit"},

		// Unit and credential routes
		{"POST", "/units"},
		{"GET", "/units/test-id"},
		{"POST", "/elections/test-id/units/test-unit/credentials"},
		{"GET", "/elections/test-id/units/test-unit/credentials"},

		// Casting and integrity routes
		{"POST", "/elections/test-id/ballots"},
		{"POST", "/elections/test-id/seal"},
		{"GET", "/elections/test-id/verify"},
		{"GET", "/elections/test-id/results"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			// A registered route never returns 405 for its own method, and
			// 404 with an empty body would mean the mux had no pattern
			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s not registered (405)", tc.method, tc.path)
			}
		})
	}
}
