package handlers

import (
	"net/http"

	"github.com/condoboard/assembly-vote/auth"
	"github.com/condoboard/assembly-vote/cliparse"
	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/registry"
	"github.com/condoboard/assembly-vote/units"
)

// OperatorHandler serves the check-in desk: roster lookups, check-in,
// proxy linking, and the roll call.
type OperatorHandler struct {
	registry *registry.Registry
	units    *units.Directory
	cfg      cliparse.Config
}

func NewOperatorHandler(reg *registry.Registry, dir *units.Directory, cfg cliparse.Config) *OperatorHandler {
	return &OperatorHandler{registry: reg, units: dir, cfg: cfg}
}

func (h *OperatorHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if err := auth.ValidateAdminToken(r.Header.Get("Authorization"), h.cfg.AdminPassword); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin token")
		return false
	}
	return true
}

// ListUnits handles GET /operator/units
func (h *OperatorHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.units.List())
}

// GetUnitSecret handles GET /operator/units/secret?block=A&unit=101
// The desk reads the code to the resident so they can log in on their phone.
func (h *OperatorHandler) GetUnitSecret(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	block := r.URL.Query().Get("block")
	unit := r.URL.Query().Get("unit")
	if block == "" || unit == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "block and unit are required")
		return
	}

	u, ok := h.units.FindByBlockUnit(block, unit)
	if !ok {
		DomainError(w, models.ErrUnitNotFound)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UnitSecretResponse{
		ID:       u.ID,
		Block:    u.Block,
		Unit:     u.UnitID,
		Fraction: u.Fraction,
		Secret:   u.AccessSecret,
	})
}

// CheckIn handles POST /operator/checkin
func (h *OperatorHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req models.CheckInRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Block == "" || req.Unit == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "block and unit are required")
		return
	}

	voter, err := h.registry.CheckIn(req.Block, req.Unit)
	if err != nil {
		DomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CheckInResponse{Attendee: voter})
}

// LinkUnit handles POST /operator/attendees/{handle}/links
func (h *OperatorHandler) LinkUnit(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	handle := r.PathValue("handle")
	if handle == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "handle is required")
		return
	}

	var req models.LinkUnitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Block == "" || req.Unit == "" || req.Relation == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "block, unit and relation are required")
		return
	}

	voter, totalWeight, err := h.registry.LinkUnit(handle, req.Block, req.Unit, req.Relation)
	if err != nil {
		DomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LinkUnitResponse{
		Attendee:    voter,
		TotalWeight: totalWeight,
	})
}

// ListRollCall handles GET /operator/roll-call
func (h *OperatorHandler) ListRollCall(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	attendees, err := h.registry.ListAttendees()
	if err != nil {
		DomainError(w, err)
		return
	}
	if attendees == nil {
		attendees = []models.Voter{}
	}
	middleware.JSONResponse(w, http.StatusOK, attendees)
}
