// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
)

// IssueCredential handles POST /elections/:id/units/:unit/credentials
//
// Issuing revokes any prior ACTIVE credential for the unit and returns the
// new raw secret exactly once. Delivery to the voter (email, letter) is the
// operator's concern; the server only ever stores the hash.
func (h *UnitHandler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	unitID := r.PathValue("unit")
	if electionID == "" || unitID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id and unit_id are required")
		return
	}

	if !h.validAdminKey(electionID, r) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Credentials are only issued while the voting window is open or about
	// to open; a closed election expires them anyway
	var status string
	err := h.db.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is closed")
		return
	}

	var exists bool
	err = h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM voting_unit WHERE id = $1)", unitID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query voting unit", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Unit not found")
		return
	}

	secret, credentialID, err := h.credentials.Issue(unitID, electionID, "operator")
	if err != nil {
		slog.Error("failed to issue credential", "error", err, "election_id", electionID, "unit_id", unitID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue credential")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.IssueCredentialResponse{
		CredentialID: credentialID,
		Secret:       secret,
	})
}

// validAdminKey checks the X-Admin-Key header against the election's key.
func (h *UnitHandler) validAdminKey(electionID string, r *http.Request) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	return auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt) == nil
}
