// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/ledger"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetResults handles GET /elections/:id/results?category=
//
// Tallies are computed straight from the ballot chain and only published
// once the election is closed; partial results while the window is open
// would leak the running count.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
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

	if status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Results are available once the election is closed")
		return
	}

	rows, err := h.db.Query(`
		SELECT c.id, c.label, COUNT(b.id)
		FROM choice c
		LEFT JOIN ballot_record b ON b.choice_id = c.id
		WHERE c.election_id = $1 AND c.category = $2
		GROUP BY c.id, c.label
		ORDER BY COUNT(b.id) DESC, c.label
	`, electionID, category)
	if err != nil {
		slog.Error("failed to query tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp := models.TallyResponse{
		ElectionID:  electionID,
		Category:    string(category),
		ChoiceVotes: []models.ChoiceTally{},
	}
	for rows.Next() {
		var ct models.ChoiceTally
		if err := rows.Scan(&ct.ChoiceID, &ct.Label, &ct.Votes); err != nil {
			slog.Error("failed to scan tally row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		resp.TotalVotes += ct.Votes
		resp.ChoiceVotes = append(resp.ChoiceVotes, ct)
	}

	// Chain head digest lets a reader tie the tally to a verifiable chain
	// state
	_, head, err := ledger.Tail(h.db, electionID, category)
	if err != nil {
		slog.Error("failed to read chain head", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if head != ledger.GenesisDigest {
		resp.HeadDigest = head
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
