// Package handlers contains the HTTP handlers for the idea board API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/ideaboard/api/internal/api/response"
	"github.com/ideaboard/api/internal/boarderrors"
)

// respondServiceError maps the service error taxonomy to HTTP statuses.
// Unknown errors become a generic 500 so internals never leak to clients.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, boarderrors.ErrValidation):
		response.RespondBadRequest(w, err.Error())
	case errors.Is(err, boarderrors.ErrNotFound):
		response.RespondNotFound(w, err.Error())
	case errors.Is(err, boarderrors.ErrConflict):
		response.RespondConflict(w, err.Error())
	case errors.Is(err, boarderrors.ErrForbidden):
		response.RespondForbidden(w, err.Error())
	case errors.Is(err, boarderrors.ErrRateLimited):
		response.RespondTooManyRequests(w, err.Error())
	case errors.Is(err, boarderrors.ErrUpstream):
		response.RespondBadGateway(w, err.Error())
	default:
		response.RespondInternalServerError(w, "An unexpected error occurred")
	}
}
