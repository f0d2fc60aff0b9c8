package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

type chequeRequest struct {
	ChequeNo   string                 `json:"cheque_no"`
	Type       models.ChequeType      `json:"type"`
	Direction  models.ChequeDirection `json:"direction"`
	Amount     decimal.Decimal        `json:"amount"`
	DueDate    Date                   `json:"due_date"`
	IssueDate  *Date                  `json:"issue_date"`
	BankName   string                 `json:"bank_name"`
	BankBranch string                 `json:"bank_branch"`
	DrawerName string                 `json:"drawer_name"`
	CustomerID *int64                 `json:"customer_id"`
	Notes      string                 `json:"notes"`
}

type updateChequeRequest struct {
	ChequeNo   *string          `json:"cheque_no"`
	Amount     *decimal.Decimal `json:"amount"`
	DueDate    *Date            `json:"due_date"`
	BankName   *string          `json:"bank_name"`
	BankBranch *string          `json:"bank_branch"`
	DrawerName *string          `json:"drawer_name"`
	Notes      *string          `json:"notes"`
}

func (h *Handler) CreateCheque(w http.ResponseWriter, r *http.Request) {
	var req chequeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Cheques.CreateCheque(r.Context(), service.CreateChequeRequest{
		ChequeNo:   req.ChequeNo,
		Type:       req.Type,
		Direction:  req.Direction,
		Amount:     req.Amount,
		DueDate:    req.DueDate.Time,
		IssueDate:  req.IssueDate.ptr(),
		BankName:   req.BankName,
		BankBranch: req.BankBranch,
		DrawerName: req.DrawerName,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCheques(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	cheques, err := h.svc.Cheques.ListCheques(r.Context(), service.ListChequesRequest{
		Status:    models.ChequeStatus(q.Get("status")),
		Direction: models.ChequeDirection(q.Get("direction")),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cheques)
}

func (h *Handler) ListDueCheques(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.upcomingWindow)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cheques, err := h.svc.Cheques.ListDue(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cheques)
}

func (h *Handler) GetCheque(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Cheques.GetCheque(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCheque(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateChequeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Cheques.UpdateCheque(r.Context(), id, service.UpdateChequeRequest{
		ChequeNo:   req.ChequeNo,
		Amount:     req.Amount,
		DueDate:    req.DueDate.ptr(),
		BankName:   req.BankName,
		BankBranch: req.BankBranch,
		DrawerName: req.DrawerName,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateChequeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Status      models.ChequeStatus `json:"status"`
		Description string              `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Cheques.UpdateStatus(r.Context(), id, req.Status, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) AddChequeNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.svc.Cheques.AddNote(r.Context(), id, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) ListChequeTransactions(w http.ResponseWriter, r *http.Request) {
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
	log, err := h.svc.Cheques.ListTransactions(r.Context(), id, offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}
