package handlers

import (
	"log/slog"
	"net/http"

	"github.com/condoboard/assembly-vote/middleware"
	"github.com/condoboard/assembly-vote/models"
)

// DomainError translates a core error into an HTTP response using the
// error taxonomy. The core itself never sees status codes.
func DomainError(w http.ResponseWriter, err error) {
	switch models.Kind(err) {
	case models.KindValidation:
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case models.KindNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case models.KindStateConflict:
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case models.KindAccessDenied:
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
	case models.KindTransient:
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	case models.KindInvariant:
		slog.Error("invariant violation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	default:
		slog.Error("internal error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
