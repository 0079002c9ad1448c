// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the wardvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, dialect, cfg)

# Endpoints

Health:

	GET /health

Election management (operator, requires X-Admin-Key):

	POST /elections               - Create election
	GET  /elections/{id}          - Election info
	POST /elections/{id}/choices  - Add choice (draft only)
	POST /elections/{id}/open     - Open the voting window
	POST /elections/{id}/close    - Close the window, expire credentials
	GET  /elections/{id}/audit    - Audit trail

Units and credentials (operator):

	POST /units                                   - Register voting unit
	GET  /units/{id}                              - Unit info
	POST /elections/{id}/units/{unit}/credentials - Issue credential
	GET  /elections/{id}/units/{unit}/credentials - Credential history

Casting (public, credential-gated):

	POST /elections/{id}/ballots - Cast a ballot

Integrity and results:

	POST /elections/{id}/seal               - Seal a chain (operator, once)
	GET  /elections/{id}/verify?category=   - Verify a chain (public)
	GET  /elections/{id}/results?category=  - Tally (closed elections)

# Handler Initialization

The router wires the integrity engine (credential store, casting
coordinator, seal manager) and injects it into the handlers:

	credentials := credential.NewStore(database, dialect)
	coordinator := casting.NewCoordinator(database, dialect, credentials)
	seals := sealing.NewManager(database)
*/
package router
