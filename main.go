package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/cliparse"
	"github.com/condoboard/assembly-vote/db"
	"github.com/condoboard/assembly-vote/ledger"
	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/registry"
	"github.com/condoboard/assembly-vote/router"
	"github.com/condoboard/assembly-vote/tally"
	"github.com/condoboard/assembly-vote/units"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Verify connection
	if err := conn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(conn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Load the immutable unit roster
	dir, err := units.Load(cfg.UnitsFile)
	if err != nil {
		slog.Error("unit roster load failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Unit roster loaded", "units", len(dir.List()))

	// Seed the assembly from the agenda definition on first run
	if err := assembly.Seed(conn, cfg.AgendaFile); err != nil {
		slog.Error("assembly seed failed", "error", err)
		os.Exit(1)
	}

	// Wire the core. One coarse lock serializes state transitions,
	// registry mutations, and vote casting.
	var gate sync.Mutex
	engine := tally.New(conn)
	state := assembly.New(conn, engine, &gate)
	reg := registry.New(conn, dir, &gate)
	led := ledger.New(conn, reg, &gate)

	// Create router
	mux := router.NewRouter(router.Deps{
		DB:       conn,
		Cfg:      cfg,
		Units:    dir,
		Registry: reg,
		State:    state,
		Ledger:   led,
		Tally:    engine,
	})

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
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
