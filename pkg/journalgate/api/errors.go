package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// ErrorResponse is the JSON body returned for every failed request. Code is a
// stable machine-readable reason so clients can explain why an action was
// blocked instead of guessing from the status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Set for invalid-transition errors so clients can refresh and decide.
	CurrentStatus   string `json:"current_status,omitempty"`
	AttemptedStatus string `json:"attempted_status,omitempty"`
}

// writeError maps engine errors onto the HTTP surface: 401 unauthenticated,
// 403 forbidden/blocked, 404 missing, 409 version conflict (the only safely
// retryable class), 422 illegal transition or not-approved.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	resp.Code = "internal"

	switch {
	case errors.Is(err, journalgate.ErrUnauthenticated):
		status = http.StatusUnauthorized
		resp.Code = "unauthenticated"
	case errors.Is(err, journalgate.ErrAccountBlocked):
		status = http.StatusForbidden
		resp.Code = "account_blocked"
	case errors.Is(err, journalgate.ErrForbidden):
		status = http.StatusForbidden
		resp.Code = "forbidden"
	case errors.Is(err, journalgate.ErrConflict):
		status = http.StatusConflict
		resp.Code = "conflict"
	case errors.Is(err, journalgate.ErrNotApproved):
		status = http.StatusUnprocessableEntity
		resp.Code = "not_approved"
	case errors.Is(err, journalgate.ErrInvalidState):
		status = http.StatusUnprocessableEntity
		resp.Code = "invalid_state"
	case errors.Is(err, journalgate.ErrItemNotFound),
		errors.Is(err, journalgate.ErrPrincipalNotFound):
		status = http.StatusNotFound
		resp.Code = "not_found"
	}

	var stateErr *journalgate.StateError
	if errors.As(err, &stateErr) {
		resp.CurrentStatus = string(stateErr.Current)
		resp.AttemptedStatus = string(stateErr.Attempted)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
