// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/credential"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
)

// UnitHandler manages the voting-unit registry. Units are households or
// addresses; identity is immutable once created.
type UnitHandler struct {
	db          *sql.DB
	cfg         cliparse.Config
	credentials *credential.Store
}

func NewUnitHandler(database *sql.DB, cfg cliparse.Config, credentials *credential.Store) *UnitHandler {
	return &UnitHandler{db: database, cfg: cfg, credentials: credentials}
}

// Register handles POST /units
func (h *UnitHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUnitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Address == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "address is required")
		return
	}

	unitID := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO voting_unit (id, address, created_unix)
		VALUES ($1, $2, $3)
	`, unitID, req.Address, time.Now().Unix())

	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Address already registered")
			return
		}
		slog.Error("failed to insert voting unit", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register unit")
		return
	}

	slog.Info("voting unit registered", "unit_id", unitID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterUnitResponse{
		UnitID: unitID,
	})
}

// Get handles GET /units/:id
func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	unitID := r.PathValue("id")
	if unitID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "unit_id is required")
		return
	}

	var unit models.Unit
	err := h.db.QueryRow(`
		SELECT id, address, created_unix FROM voting_unit WHERE id = $1
	`, unitID).Scan(&unit.ID, &unit.Address, &unit.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Unit not found")
		return
	}
	if err != nil {
		slog.Error("failed to query voting unit", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, unit)
}

// GetCredentials handles GET /elections/:id/units/:unit/credentials
// Returns the unit's credential history (states and timestamps, never
// secrets or hashes usable for casting).
func (h *UnitHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
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

	creds, err := h.credentials.History(unitID, electionID)
	if err != nil {
		slog.Error("failed to query credential history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if creds == nil {
		creds = []models.Credential{}
	}

	middleware.JSONResponse(w, http.StatusOK, creds)
}
