package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/invoice-admin/internal/httpx"
	"github.com/diewo77/invoice-admin/internal/i18n"
	"github.com/diewo77/invoice-admin/internal/invoices"
)

// writeDomainError maps the invoices error taxonomy to HTTP codes and
// translated messages. Every terminal failure gets a distinct,
// human-readable message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	lang := i18n.Lang(r.Context())

	var verr *invoices.ValidationError
	if errors.As(err, &verr) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), verr.Violations)
		return
	}

	switch {
	case errors.Is(err, invoices.ErrNotAuthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
	case errors.Is(err, invoices.ErrNumberExhausted):
		httpx.JSONError(w, http.StatusConflict, "number_conflict", i18n.T(lang, "number_conflict"), nil)
	case errors.Is(err, invoices.ErrDuplicateNumber):
		httpx.JSONError(w, http.StatusConflict, "number_conflict", i18n.T(lang, "number_conflict"), nil)
	case errors.Is(err, invoices.ErrForbiddenTransition):
		httpx.JSONError(w, http.StatusConflict, "forbidden_transition", i18n.T(lang, "forbidden_transition"), nil)
	case errors.Is(err, invoices.ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), nil)
	case errors.Is(err, invoices.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", i18n.T(lang, "not_found"), nil)
	case errors.Is(err, invoices.ErrStoreUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "store_unavailable", i18n.T(lang, "store_unavailable"), nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", i18n.T(lang, "internal_error"), nil)
	}
}
