// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wardvote/wardvote/auth"
	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/credential"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	electionID := uuid.NewString()

	// Generate admin key
	adminKey := auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt)

	// Insert election into database
	_, err := h.db.Exec(`
		INSERT INTO election (id, name, status, created_unix)
		VALUES ($1, $2, $3, $4)
	`, electionID, req.Name, models.StatusDraft, time.Now().Unix())

	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "name", req.Name)

	// Return response
	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   adminKey,
	})
}

// GetElection handles GET /elections/:id
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	var election models.Election
	err := h.db.QueryRow(`
		SELECT id, name, status, created_unix, opened_unix, closed_unix
		FROM election
		WHERE id = $1
	`, electionID).Scan(
		&election.ID, &election.Name, &election.Status,
		&election.CreatedAt, &election.OpenedAt, &election.ClosedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, election)
}

// AddChoice handles POST /elections/:id/choices
func (h *ElectionHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
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

	// Parse request
	var req models.AddChoiceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "label is required")
		return
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category must be council or fiscal")
		return
	}

	// Check election exists and is in draft status
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

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add choices to non-draft election")
		return
	}

	choiceID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO choice (id, election_id, category, label)
		VALUES ($1, $2, $3, $4)
	`, choiceID, electionID, category, req.Label)

	if err != nil {
		slog.Error("failed to insert choice", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add choice")
		return
	}

	slog.Info("choice added", "election_id", electionID, "category", category, "label", req.Label)

	middleware.JSONResponse(w, http.StatusCreated, models.AddChoiceResponse{
		ChoiceID: choiceID,
	})
}

// OpenElection handles POST /elections/:id/open
func (h *ElectionHandler) OpenElection(w http.ResponseWriter, r *http.Request) {
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

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in draft")
		return
	}

	// Every category needs at least one choice before the window opens
	for _, category := range models.Categories {
		var n int64
		err := h.db.QueryRow(`
			SELECT COUNT(*) FROM choice WHERE election_id = $1 AND category = $2
		`, electionID, category).Scan(&n)
		if err != nil {
			slog.Error("failed to count choices", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if n == 0 {
			middleware.ErrorResponse(w, http.StatusConflict, "Category "+string(category)+" has no choices")
			return
		}
	}

	now := time.Now().Unix()

	// Status change and its audit event commit together
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE election SET status = $1, opened_unix = $2 WHERE id = $3 AND status = $4
	`, models.StatusOpen, now, electionID, models.StatusDraft)
	if err != nil {
		slog.Error("failed to open election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open election")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO audit_event (id, election_id, actor, action, subject, occurred_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), electionID, "operator", "election_opened", electionID, now)
	if err != nil {
		slog.Error("failed to write audit event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open election")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open election")
		return
	}

	slog.Info("election opened", "election_id", electionID)

	middleware.JSONResponse(w, http.StatusOK, map[string]int64{"opened_unix": now})
}

// CloseElection handles POST /elections/:id/close
//
// Closing the voting window expires every remaining ACTIVE credential in the
// same transaction, so a secret that was never fully used cannot cast after
// the close.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
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
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	now := time.Now().Unix()

	// Begin transaction
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE election SET status = $1, closed_unix = $2 WHERE id = $3 AND status = $4
	`, models.StatusClosed, now, electionID, models.StatusOpen)
	if err != nil {
		slog.Error("failed to close election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	expired, err := credential.ExpireForElection(tx, electionID)
	if err != nil {
		slog.Error("failed to expire credentials", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO audit_event (id, election_id, actor, action, subject, occurred_unix)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), electionID, "operator", "election_closed", electionID, now)
	if err != nil {
		slog.Error("failed to write audit event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	slog.Info("election closed", "election_id", electionID, "expired_credentials", expired)

	middleware.JSONResponse(w, http.StatusOK, map[string]int64{
		"closed_unix":         now,
		"expired_credentials": expired,
	})
}

// GetAudit handles GET /elections/:id/audit
func (h *ElectionHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.db.Query(`
		SELECT id, election_id, actor, action, subject, occurred_unix
		FROM audit_event
		WHERE election_id = $1
		ORDER BY occurred_unix ASC, id
	`, electionID)
	if err != nil {
		slog.Error("failed to query audit events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var ev models.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.ElectionID, &ev.Actor, &ev.Action, &ev.Subject, &ev.OccurredAt); err != nil {
			slog.Error("failed to scan audit event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		events = append(events, ev)
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}
