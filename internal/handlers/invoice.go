package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diewo77/invoice-admin/internal/auth"
	"github.com/diewo77/invoice-admin/internal/gate"
	"github.com/diewo77/invoice-admin/internal/httpx"
	"github.com/diewo77/invoice-admin/internal/i18n"
	"github.com/diewo77/invoice-admin/internal/invoices"
	"github.com/diewo77/invoice-admin/internal/models"
)

// InvoiceHandler exposes the invoice workflow and repository as JSON endpoints.
type InvoiceHandler struct {
	Repo     *invoices.Repository
	Workflow *invoices.Workflow
	Gate     *gate.Gate[uint]
}

func NewInvoiceHandler(repo *invoices.Repository, wf *invoices.Workflow, g *gate.Gate[uint]) *InvoiceHandler {
	return &InvoiceHandler{Repo: repo, Workflow: wf, Gate: g}
}

type lineReq struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitRate    float64 `json:"unit_rate"`
	Currency    string  `json:"currency"`
	Included    *bool   `json:"included"`
}

type createReq struct {
	ClientID uint      `json:"client_id"`
	Notes    string    `json:"notes"`
	Status   string    `json:"status"`
	Lines    []lineReq `json:"lines"`
}

// Create: POST /invoices
// The number is allocated server-side; a duplicate race is retried once
// inside the workflow and is invisible here when the retry succeeds.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	lang := i18n.Lang(r.Context())
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "validation_failed"), nil)
		return
	}

	draft := invoices.Draft{
		ClientID: req.ClientID,
		Notes:    req.Notes,
		Status:   models.InvoiceStatus(req.Status),
		Lines:    make([]models.InvoiceLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		included := true
		if l.Included != nil {
			included = *l.Included
		}
		currency := l.Currency
		if currency == "" {
			currency = "EUR"
		}
		draft.Lines = append(draft.Lines, models.InvoiceLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitRate:    l.UnitRate,
			Currency:    currency,
			Included:    included,
		})
	}

	inv, err := h.Workflow.Create(r.Context(), userID, draft)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// List: GET /invoices?status=&limit=&page=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	filter := invoices.ListFilter{
		Status: models.InvoiceStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		limit := filter.Limit
		if limit <= 0 {
			limit = 50
		}
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			filter.Offset = (n - 1) * limit
		}
	}
	invs, err := h.Repo.List(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "count": len(invs)})
}

// Get: GET /invoices/{number}
// ?deleted=1 is the audit path: it also finds soft-deleted invoices.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	includeDeleted := r.URL.Query().Get("deleted") == "1"
	inv, err := h.Repo.GetByNumber(r.Context(), userID, r.PathValue("number"), includeDeleted)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), userID, gate.ActionView, "invoice", inv); err != nil {
		writeDomainError(w, r, invoices.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// UpdateStatus: POST /invoices/{number}/status with {"status": "..."}
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	lang := i18n.Lang(r.Context())
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "validation_failed"), nil)
		return
	}
	inv, err := h.Repo.UpdateStatus(r.Context(), userID, r.PathValue("number"), models.InvoiceStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: POST /invoices/{number}/delete – soft delete only.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	number := r.PathValue("number")
	if err := h.Repo.SoftDelete(r.Context(), userID, number); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted", "number": number})
}
