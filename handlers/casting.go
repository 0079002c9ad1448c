// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/casting"
	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
)

type CastingHandler struct {
	db          *sql.DB
	cfg         cliparse.Config
	coordinator *casting.Coordinator
}

func NewCastingHandler(db *sql.DB, cfg cliparse.Config, coordinator *casting.Coordinator) *CastingHandler {
	return &CastingHandler{db: db, cfg: cfg, coordinator: coordinator}
}

// CastBallot handles POST /elections/:id/ballots
//
// The three cast outcomes are all HTTP 200 with an outcome field: an
// already-voted retry or a consumed credential is a routine result the UI
// renders, not an error.
func (h *CastingHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Parse request
	var req models.CastBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Secret == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "secret is required")
		return
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category must be council or fiscal")
		return
	}
	if req.ChoiceID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice_id is required")
		return
	}

	// Casting is only valid while the window is open
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
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	// The choice must belong to this election and category
	var choiceOK bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM choice
			WHERE id = $1 AND election_id = $2 AND category = $3
		)
	`, req.ChoiceID, electionID, category).Scan(&choiceOK)
	if err != nil {
		slog.Error("failed to verify choice", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !choiceOK {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid choice_id for this election and category")
		return
	}

	// Provenance metadata
	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.AdminKeySalt) // Reuse admin salt for IP hashing
	userAgent := r.UserAgent()

	result, err := h.coordinator.Cast(casting.Request{
		Secret:     req.Secret,
		ElectionID: electionID,
		Category:   category,
		ChoiceID:   req.ChoiceID,
		IPHash:     &ipHash,
		UserAgent:  &userAgent,
	})
	if err != nil {
		slog.Error("cast failed", "error", err, "election_id", electionID, "category", category)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast ballot")
		return
	}

	resp := models.CastBallotResponse{Outcome: result.Outcome}
	if result.Outcome == models.CastAccepted {
		resp.Position = result.Record.Position
		resp.Digest = result.Record.Digest
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
