// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Sentinel errors for the transport layer.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

var kindStatus = map[string]int{
	"not_found":             http.StatusNotFound,
	"invalid_input":         http.StatusBadRequest,
	"invalid_line":          http.StatusUnprocessableEntity,
	"no_lines":              http.StatusUnprocessableEntity,
	"unbalanced":            http.StatusUnprocessableEntity,
	"invalid_parent":        http.StatusUnprocessableEntity,
	"invalid_period_count":  http.StatusUnprocessableEntity,
	"account_not_postable":  http.StatusUnprocessableEntity,
	"no_period_defined":     http.StatusUnprocessableEntity,
	"duplicate_code":        http.StatusConflict,
	"source_already_linked": http.StatusConflict,
	"fiscal_year_overlap":   http.StatusConflict,
	"already_generated":     http.StatusConflict,
	"period_closed":         http.StatusConflict,
	"not_draft":             http.StatusConflict,
	"not_posted":            http.StatusConflict,
	"already_reversed":      http.StatusConflict,
	"not_approved":          http.StatusConflict,
	"has_active_children":   http.StatusConflict,
	"account_in_use":        http.StatusConflict,
	"invalid_transition":    http.StatusConflict,
	"fiscal_year_closed":    http.StatusConflict,
	"periods_still_open":    http.StatusConflict,
	"broken_chain":          http.StatusConflict,
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	if kind := shared.Kind(err); kind != "" {
		status, ok := kindStatus[kind]
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		JSON(w, status, ProblemDetail{
			Type:   "urn:odyssey:ledger:" + kind,
			Title:  http.StatusText(status),
			Status: status,
			Detail: err.Error(),
		})
		return
	}
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case db.Retryable(err):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Conflicting Update", "the ledger was changed concurrently, retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
