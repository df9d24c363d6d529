package handlers

import (
	"net/http"
	"strconv"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/auth"
	"github.com/condoboard/assembly-vote/cliparse"
	"github.com/condoboard/assembly-vote/middleware"
)

type AdminHandler struct {
	state *assembly.Service
	cfg   cliparse.Config
}

func NewAdminHandler(state *assembly.Service, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{state: state, cfg: cfg}
}

func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if err := auth.ValidateAdminToken(r.Header.Get("Authorization"), h.cfg.AdminPassword); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin token")
		return false
	}
	return true
}

// GetAssembly handles GET /admin/assembly
func (h *AdminHandler) GetAssembly(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	view, err := h.state.State()
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// StartAssembly handles POST /admin/assembly/start
func (h *AdminHandler) StartAssembly(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	a, err := h.state.Start()
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// CloseAssembly handles POST /admin/assembly/close
func (h *AdminHandler) CloseAssembly(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	a, err := h.state.Close()
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a)
}

// OpenItem handles POST /admin/items/{orderNo}/open
func (h *AdminHandler) OpenItem(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	orderNo, ok := parseOrderNo(w, r)
	if !ok {
		return
	}

	item, err := h.state.OpenItem(orderNo)
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, item)
}

// CloseItem handles POST /admin/items/{orderNo}/close
func (h *AdminHandler) CloseItem(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	orderNo, ok := parseOrderNo(w, r)
	if !ok {
		return
	}

	item, err := h.state.CloseItem(orderNo)
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, item)
}

// VoidItem handles POST /admin/items/{orderNo}/void
func (h *AdminHandler) VoidItem(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	orderNo, ok := parseOrderNo(w, r)
	if !ok {
		return
	}

	item, err := h.state.VoidItem(orderNo)
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, item)
}

func parseOrderNo(w http.ResponseWriter, r *http.Request) (int, bool) {
	orderNo, err := strconv.Atoi(r.PathValue("orderNo"))
	if err != nil || orderNo < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "orderNo must be a positive integer")
		return 0, false
	}
	return orderNo, true
}
