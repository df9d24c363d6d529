package handlers

import (
	"net/http"

	"github.com/condoboard/assembly-vote/assembly"
	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/models"
	"github.com/condoboard/assembly-vote/tally"
)

// PublicHandler serves the projector view: assembly status and item
// results, no auth.
type PublicHandler struct {
	state  *assembly.Service
	engine *tally.Engine
}

func NewPublicHandler(state *assembly.Service, engine *tally.Engine) *PublicHandler {
	return &PublicHandler{state: state, engine: engine}
}

// Status handles GET /public/status
// Shows the open item with live totals, or the most recently closed item
// with its frozen totals.
func (h *PublicHandler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.state.State()
	if err != nil {
		DomainError(w, err)
		return
	}

	resp := models.StatusResponse{Assembly: view.Assembly}

	show := pickDisplayItem(view.Items)
	if show != nil {
		status, err := h.itemStatus(*show)
		if err != nil {
			DomainError(w, err)
			return
		}
		resp.CurrentItem = &status
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetResults handles GET /public/items/{orderNo}/results
func (h *PublicHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	orderNo, ok := parseOrderNo(w, r)
	if !ok {
		return
	}

	item, err := h.state.Item(orderNo)
	if err != nil {
		DomainError(w, err)
		return
	}

	status, err := h.itemStatus(item)
	if err != nil {
		DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, status)
}

// itemStatus picks frozen results for a finished item and a live
// recomputation for anything still open.
func (h *PublicHandler) itemStatus(item models.Item) (models.ItemStatus, error) {
	if item.FrozenResults != nil && item.Status != models.ItemOpen {
		return models.ItemStatus{Item: item, Results: *item.FrozenResults, Live: false}, nil
	}

	snap, err := h.engine.Tally(item.AssemblyID, item.OrderNo)
	if err != nil {
		return models.ItemStatus{}, err
	}
	return models.ItemStatus{Item: item, Results: snap, Live: true}, nil
}

// pickDisplayItem returns the open item, or failing that the closed item
// whose voting ended last.
func pickDisplayItem(items []models.Item) *models.Item {
	for i := range items {
		if items[i].Status == models.ItemOpen {
			return &items[i]
		}
	}

	var latest *models.Item
	for i := range items {
		if items[i].Status != models.ItemClosed || items[i].VotingEndedAt == nil {
			continue
		}
		if latest == nil || items[i].VotingEndedAt.After(*latest.VotingEndedAt) {
			latest = &items[i]
		}
	}
	return latest
}
