package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/export"
	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

type planRequest struct {
	CustomerID           int64           `json:"customer_id"`
	PlanNo               string          `json:"plan_no"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	NumberOfInstallments int             `json:"number_of_installments"`
	StartDate            Date            `json:"start_date"`
	PaymentDay           int             `json:"payment_day"`
}

func (p planRequest) toService() service.CreatePlanRequest {
	return service.CreatePlanRequest{
		CustomerID:           p.CustomerID,
		PlanNo:               p.PlanNo,
		Title:                p.Title,
		Description:          p.Description,
		TotalAmount:          p.TotalAmount,
		DownPayment:          p.DownPayment,
		InterestRate:         p.InterestRate,
		NumberOfInstallments: p.NumberOfInstallments,
		StartDate:            p.StartDate.Time,
		PaymentDay:           p.PaymentDay,
	}
}

type updatePlanRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	DownPayment  *decimal.Decimal `json:"down_payment"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	StartDate    *Date            `json:"start_date"`
	PaymentDay   *int             `json:"payment_day"`
}

type scheduleEntry struct {
	InstallmentNo int             `json:"installment_no"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
}

// installmentView adds the derived late flag to an installment
type installmentView struct {
	models.Installment
	IsLate   bool `json:"is_late"`
	DaysLate int  `json:"days_late,omitempty"`
}

func (h *Handler) views(installments []models.Installment) []installmentView {
	now := h.now()
	out := make([]installmentView, 0, len(installments))
	for _, inst := range installments {
		out = append(out, installmentView{Installment: inst, IsLate: inst.IsLate(now), DaysLate: inst.DaysLate(now)})
	}
	return out
}

func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.svc.Payments.PreviewSchedule(req.toService())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]scheduleEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, scheduleEntry{InstallmentNo: e.InstallmentNo, DueDate: e.DueDate, Amount: e.Amount})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.Payments.CreatePlan(r.Context(), req.toService())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.Payments.GetPlanWithInstallments(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*models.PaymentPlan
		Installments []installmentView `json:"installments"`
	}{plan, h.views(plan.Installments)})
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updatePlanRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.Payments.UpdatePlan(r.Context(), id, service.UpdatePlanRequest{
		Title:        req.Title,
		Description:  req.Description,
		TotalAmount:  req.TotalAmount,
		DownPayment:  req.DownPayment,
		InterestRate: req.InterestRate,
		StartDate:    req.StartDate.ptr(),
		PaymentDay:   req.PaymentDay,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) PlanSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.svc.Payments.Summarize(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) RemainingBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	remaining, err := h.svc.Payments.RemainingBalance(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan_id": id, "remaining_balance": remaining})
}

// ScheduleXML serves the plan, its installments and summary as XML
func (h *Handler) ScheduleXML(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.Payments.GetPlanWithInstallments(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.svc.Payments.Summarize(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := export.ScheduleXML(plan, summary, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) ListCustomerPlans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plans, err := h.svc.Payments.ListCustomerPlans(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

type recordPaymentRequest struct {
	PaymentType models.PaymentType `json:"payment_type"`
	Reference   string             `json:"reference"`
	Notes       string             `json:"notes"`
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req recordPaymentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inst, err := h.svc.Payments.RecordPayment(r.Context(), id, service.RecordPaymentRequest{
		PaymentType: req.PaymentType,
		Reference:   req.Reference,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inst, err := h.svc.Payments.CancelPayment(r.Context(), id, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// asOf reads the as_of query parameter, defaulting to today
func (h *Handler) asOf(r *http.Request) (time.Time, error) {
	t, err := queryDate(r, "as_of")
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return h.now(), nil
	}
	return *t, nil
}

func (h *Handler) ListLate(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	late, err := h.svc.Payments.ListLate(r.Context(), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]installmentView, 0, len(late))
	for _, inst := range late {
		out = append(out, installmentView{Installment: inst, IsLate: true, DaysLate: inst.DaysLate(asOf)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", h.upcomingWindow)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	upcoming, err := h.svc.Payments.ListUpcoming(r.Context(), asOf, days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.svc.Payments.ListUnreadNotifications(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.svc.Payments.MarkNotificationRead(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
