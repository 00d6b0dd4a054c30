package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-admin/internal/auth"
	"github.com/diewo77/invoice-admin/internal/gate"
	"github.com/diewo77/invoice-admin/internal/httpx"
	"github.com/diewo77/invoice-admin/internal/i18n"
	"github.com/diewo77/invoice-admin/internal/invoices"
	"github.com/diewo77/invoice-admin/internal/models"
	"github.com/diewo77/invoice-admin/internal/validation"
)

// ClientHandler covers the minimal client CRUD invoices depend on.
type ClientHandler struct {
	DB   *gorm.DB
	Gate *gate.Gate[uint]
}

func NewClientHandler(db *gorm.DB, g *gate.Gate[uint]) *ClientHandler {
	return &ClientHandler{DB: db, Gate: g}
}

type clientReq struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	var clients []models.Client
	if err := h.DB.Where("user_id = ?", userID).Order("name").Find(&clients).Error; err != nil {
		writeDomainError(w, r, invoices.ErrStoreUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "count": len(clients)})
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	lang := i18n.Lang(r.Context())
	var req clientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "validation_failed"), nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), v)
		return
	}
	client := models.Client{
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		writeDomainError(w, r, invoices.ErrStoreUnavailable)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

// Get: GET /clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, invoices.ErrNotAuthenticated)
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeDomainError(w, r, invoices.ErrNotFound)
		return
	}
	var client models.Client
	if err := h.DB.Where("user_id = ?", userID).First(&client, id).Error; err != nil {
		writeDomainError(w, r, invoices.ErrNotFound)
		return
	}
	if err := h.Gate.Authorize(r.Context(), userID, gate.ActionView, "client", &client); err != nil {
		writeDomainError(w, r, invoices.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}
