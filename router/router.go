// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/wardvote/wardvote/casting"
	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/credential"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/handlers"
	"github.com/wardvote/wardvote/middleware"
	"github.com/wardvote/wardvote/sealing"
)

func NewRouter(database *sql.DB, dialect db.Dialect, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Wire the integrity engine
	credentials := credential.NewStore(database, dialect)
	coordinator := casting.NewCoordinator(database, dialect, credentials)
	seals := sealing.NewManager(database)

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(database, cfg)
	unitHandler := handlers.NewUnitHandler(database, cfg, credentials)
	castingHandler := handlers.NewCastingHandler(database, cfg, coordinator)
	integrityHandler := handlers.NewIntegrityHandler(database, cfg, seals)
	resultsHandler := handlers.NewResultsHandler(database, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management (operator)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("POST /elections/{id}/choices", middleware.WithLogging(electionHandler.AddChoice))
	mux.HandleFunc("POST /elections/{id}/open", middleware.WithLogging(electionHandler.OpenElection))
	mux.HandleFunc("POST /elections/{id}/close", middleware.WithLogging(electionHandler.CloseElection))
	mux.HandleFunc("GET /elections/{id}/audit", middleware.WithLogging(electionHandler.GetAudit))

	// Unit registry and credentials (operator)
	mux.HandleFunc("POST /units", middleware.WithLogging(unitHandler.Register))
	mux.HandleFunc("GET /units/{id}", middleware.WithLogging(unitHandler.Get))
	mux.HandleFunc("POST /elections/{id}/units/{unit}/credentials", middleware.WithLogging(unitHandler.IssueCredential))
	mux.HandleFunc("GET /elections/{id}/units/{unit}/credentials", middleware.WithLogging(unitHandler.GetCredentials))

	// Casting (public, credential-gated)
	mux.HandleFunc("POST /elections/{id}/ballots", middleware.WithLogging(castingHandler.CastBallot))

	// Sealing and verification
	mux.HandleFunc("POST /elections/{id}/seal", middleware.WithLogging(integrityHandler.SealChain))
	mux.HandleFunc("GET /elections/{id}/verify", middleware.WithLogging(integrityHandler.VerifyChain))

	// Results (public once closed)
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wardvote API v1"))
	})

	return mux
}
