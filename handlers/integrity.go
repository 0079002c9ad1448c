// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
	"github.com/wardvote/wardvote/sealing"
)

type IntegrityHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	seals *sealing.Manager
}

func NewIntegrityHandler(db *sql.DB, cfg cliparse.Config, seals *sealing.Manager) *IntegrityHandler {
	return &IntegrityHandler{db: db, cfg: cfg, seals: seals}
}

// SealChain handles POST /elections/:id/seal
func (h *IntegrityHandler) SealChain(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.SealChainRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category must be council or fiscal")
		return
	}

	seal, err := h.seals.Seal(electionID, category, "operator")
	if err != nil {
		switch {
		case errors.Is(err, sealing.ErrAlreadySealed):
			middleware.ErrorResponse(w, http.StatusConflict, "Chain already sealed")
		case errors.Is(err, sealing.ErrElectionNotClosed):
			middleware.ErrorResponse(w, http.StatusConflict, "Election must be closed before sealing")
		case errors.Is(err, sealing.ErrChainInvalid):
			// Integrity failures are never silently ignored or auto-repaired
			middleware.ErrorResponse(w, http.StatusConflict, "Chain failed integrity verification; refusing to seal")
		default:
			slog.Error("failed to seal chain", "error", err, "election_id", electionID, "category", category)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to seal chain")
		}
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SealChainResponse{Seal: seal})
}

// VerifyChain handles GET /elections/:id/verify?category=
// Public and read-only: anyone may replay the chain verification.
func (h *IntegrityHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	category, ok := models.ParseCategory(r.URL.Query().Get("category"))
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category must be council or fiscal")
		return
	}

	report, err := h.seals.Verify(electionID, category)
	if err != nil {
		slog.Error("failed to verify chain", "error", err, "election_id", electionID, "category", category)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify chain")
		return
	}

	if !report.Valid {
		slog.Warn("chain verification failed",
			"election_id", electionID,
			"category", category,
			"failures", len(report.Failures),
			"seal_status", report.SealStatus,
		)
	}

	middleware.JSONResponse(w, http.StatusOK, report)
}
