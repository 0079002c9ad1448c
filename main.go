package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/wardvote/wardvote/cliparse"
	"github.com/wardvote/wardvote/db"
	"github.com/wardvote/wardvote/models"
	"github.com/wardvote/wardvote/router"
	"github.com/wardvote/wardvote/sealing"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := sql.Open(dialect.DriverName(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Offline audit mode: verify a chain against a ledger copy and exit
	if cfg.VerifyElection != "" {
		os.Exit(runVerify(dbConn, cfg))
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Create router
	mux := router.NewRouter(dbConn, dialect, cfg)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// runVerify replays the chain verification for one (election, category)
// against whatever database the config points at - typically a copy taken
// for third-party audit - and reports to stdout.
func runVerify(dbConn *sql.DB, cfg cliparse.Config) int {
	category, ok := models.ParseCategory(cfg.VerifyCategory)
	if !ok {
		fmt.Fprintln(os.Stderr, "verify-category must be council or fiscal")
		return 2
	}

	report, err := sealing.Verify(dbConn, cfg.VerifyElection, category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification error: %v\n", err)
		return 2
	}

	fmt.Printf("election %s, category %s: %s records, seal %s\n",
		report.ElectionID, report.Category,
		humanize.Comma(report.RecordCount), report.SealStatus)

	for _, f := range report.Failures {
		fmt.Printf("  position %d: %s (%s)\n", f.Position, f.Reason, f.Detail)
	}

	if !report.Valid {
		fmt.Println("chain INVALID")
		return 1
	}
	fmt.Println("chain valid")
	return 0
}
