package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

type customerRequest struct {
	Name      string              `json:"name"`
	TaxNumber string              `json:"tax_number"`
	Phone     string              `json:"phone"`
	Address   string              `json:"address"`
	Type      models.CustomerType `json:"type"`
}

type updateCustomerRequest struct {
	Name      *string              `json:"name"`
	TaxNumber *string              `json:"tax_number"`
	Phone     *string              `json:"phone"`
	Address   *string              `json:"address"`
	Type      *models.CustomerType `json:"type"`
}

type customerTransactionRequest struct {
	Date        *Date                  `json:"date"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount"`
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.CreateCustomer(r.Context(), service.CreateCustomerRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	customers, err := h.svc.Customers.ListCustomers(r.Context(), offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateCustomerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Customers.UpdateCustomer(r.Context(), id, service.UpdateCustomerRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Customers.DeleteCustomer(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddCustomerTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req customerTransactionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.svc.Customers.AddTransaction(r.Context(), id, service.AddTransactionRequest{
		Date:        req.Date.ptr(),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	transactions, err := h.svc.Customers.ListTransactions(r.Context(), id, offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (h *Handler) CustomerBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.Customers.GetBalance(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
