package router

import (
	"database/sql"
	"net/http"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/cliparse"
	"github.com/condoboard/assembly-vote/handlers"
	"github.com/condoboard/assembly-vote/ledger"
	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/registry"
	"github.com/condoboard/assembly-vote/tally"
	"github.com/condoboard/assembly-vote/units"
)

// Deps carries the wired core services into the route table.
type Deps struct {
	DB       *sql.DB
	Cfg      cliparse.Config
	Units    *units.Directory
	Registry *registry.Registry
	State    *assembly.Service
	Ledger   *ledger.Ledger
	Tally    *tally.Engine
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(deps.State, deps.Cfg)
	operatorHandler := handlers.NewOperatorHandler(deps.Registry, deps.Units, deps.Cfg)
	votingHandler := handlers.NewVotingHandler(deps.Registry, deps.Ledger, deps.State)
	publicHandler := handlers.NewPublicHandler(deps.State, deps.Tally)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Assembly lifecycle (admin)
	mux.HandleFunc("GET /admin/assembly", middleware.WithLogging(adminHandler.GetAssembly))
	mux.HandleFunc("POST /admin/assembly/start", middleware.WithLogging(adminHandler.StartAssembly))
	mux.HandleFunc("POST /admin/assembly/close", middleware.WithLogging(adminHandler.CloseAssembly))
	mux.HandleFunc("POST /admin/items/{orderNo}/open", middleware.WithLogging(adminHandler.OpenItem))
	mux.HandleFunc("POST /admin/items/{orderNo}/close", middleware.WithLogging(adminHandler.CloseItem))
	mux.HandleFunc("POST /admin/items/{orderNo}/void", middleware.WithLogging(adminHandler.VoidItem))

	// Check-in desk (operator)
	mux.HandleFunc("GET /operator/units", middleware.WithLogging(operatorHandler.ListUnits))
	mux.HandleFunc("GET /operator/units/secret", middleware.WithLogging(operatorHandler.GetUnitSecret))
	mux.HandleFunc("POST /operator/checkin", middleware.WithLogging(operatorHandler.CheckIn))
	mux.HandleFunc("POST /operator/attendees/{handle}/links", middleware.WithLogging(operatorHandler.LinkUnit))
	mux.HandleFunc("GET /operator/roll-call", middleware.WithLogging(operatorHandler.ListRollCall))

	// Voter device
	mux.HandleFunc("POST /vote/login", middleware.WithLogging(votingHandler.Login))
	mux.HandleFunc("POST /vote/cast", middleware.WithLogging(votingHandler.Cast))

	// Projector / hall view
	mux.HandleFunc("GET /public/status", middleware.WithLogging(publicHandler.Status))
	mux.HandleFunc("GET /public/items/{orderNo}/results", middleware.WithLogging(publicHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("assembly-vote API v1"))
	})

	return mux
}
