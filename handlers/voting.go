package handlers

import (
	"net/http"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/ledger"
	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/registry"
)

// VotingHandler serves the voter's own device: login with the unit code,
// then cast.
type VotingHandler struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	state    *assembly.Service
}

func NewVotingHandler(reg *registry.Registry, led *ledger.Ledger, state *assembly.Service) *VotingHandler {
	return &VotingHandler{registry: reg, ledger: led, state: state}
}

// Login handles POST /vote/login
func (h *VotingHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Block == "" || req.Unit == "" || req.Secret == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "block, unit and secret are required")
		return
	}

	a, err := h.state.Assembly()
	if err != nil {
		DomainError(w, err)
		return
	}
	if a.Status != models.AssemblyStarted {
		DomainError(w, models.ErrAssemblyNotStarted)
		return
	}

	voter, err := h.registry.Login(req.Block, req.Unit, req.Secret)
	if err != nil {
		DomainError(w, err)
		return
	}

	// Only the anonymous handle leaves the server; the block/unit pairing
	// stays on the operator side.
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		VoterHandle: voter.Handle,
		LoginAt:     *voter.LoginAt,
	})
}

// Cast handles POST /vote/cast
func (h *VotingHandler) Cast(w http.ResponseWriter, r *http.Request) {
	var req models.CastRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VoterHandle == "" || req.ItemOrderNo < 1 || req.Choice < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_handle, item_order_no and choice are required")
		return
	}

	rec, err := h.ledger.Cast(req.VoterHandle, req.ItemOrderNo, req.Choice)
	if err != nil {
		DomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastResponse{
		VoteID:    rec.ID,
		CreatedAt: rec.CreatedAt,
	})
}
