package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/amortization"
	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/models"
)

// PlanStore persists payment plans, installments and their notifications
type PlanStore interface {
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)

	CreatePlan(ctx context.Context, plan *models.PaymentPlan, installments []models.Installment) error
	GetPlan(ctx context.Context, id int64) (*models.PaymentPlan, error)
	ListPlansByCustomer(ctx context.Context, customerID int64) ([]models.PaymentPlan, error)
	UpdatePlan(ctx context.Context, plan *models.PaymentPlan) error
	CountPaidInstallments(ctx context.Context, planID int64) (int, error)

	GetInstallment(ctx context.Context, id int64) (*models.Installment, error)
	ListInstallmentsByPlan(ctx context.Context, planID int64) ([]models.Installment, error)
	ListPendingDueBefore(ctx context.Context, before time.Time) ([]models.Installment, error)
	ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Installment, error)
	MarkInstallmentPaid(ctx context.Context, id int64, rec models.PaymentRecord) (*models.Installment, error)
	CancelInstallment(ctx context.Context, id int64, notes string) (*models.Installment, error)

	CreateNotification(ctx context.Context, n *models.PaymentNotification) error
	HasNotification(ctx context.Context, installmentID int64, typ models.NotificationType) (bool, error)
	ListUnreadNotifications(ctx context.Context) ([]models.PaymentNotification, error)
	MarkNotificationRead(ctx context.Context, id int64) (*models.PaymentNotification, error)
}

// PaymentService runs the payment plan lifecycle and the installment ledger
type PaymentService struct {
	store   PlanStore
	log     *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPaymentService initializes a new payment service
func NewPaymentService(store PlanStore, log *logrus.Logger, m *metrics.Metrics) *PaymentService {
	return &PaymentService{store: store, log: log, metrics: m, now: time.Now}
}

// WithClock replaces the time source used for payment stamps and late detection.
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// CreatePlanRequest carries the terms of a new payment plan
type CreatePlanRequest struct {
	CustomerID           int64
	PlanNo               string
	Title                string
	Description          string
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	InterestRate         decimal.Decimal
	NumberOfInstallments int
	StartDate            time.Time
	PaymentDay           int
}

func (r CreatePlanRequest) terms() amortization.Terms {
	return amortization.Terms{
		TotalAmount:          r.TotalAmount,
		DownPayment:          r.DownPayment,
		AnnualInterestRate:   r.InterestRate,
		NumberOfInstallments: r.NumberOfInstallments,
		StartDate:            models.DateOnly(r.StartDate),
		PaymentDay:           r.PaymentDay,
	}
}

// UpdatePlanRequest lists the plan fields that may be edited. Nil fields are
// left unchanged.
type UpdatePlanRequest struct {
	Title        *string
	Description  *string
	TotalAmount  *decimal.Decimal
	DownPayment  *decimal.Decimal
	InterestRate *decimal.Decimal
	StartDate    *time.Time
	PaymentDay   *int
}

// changesTerms reports whether the request sets a schedule field to a value
// different from the stored one.
func (r UpdatePlanRequest) changesTerms(plan *models.PaymentPlan) bool {
	switch {
	case r.TotalAmount != nil && !r.TotalAmount.Equal(plan.TotalAmount):
		return true
	case r.DownPayment != nil && !r.DownPayment.Equal(plan.DownPayment):
		return true
	case r.InterestRate != nil && !r.InterestRate.Equal(plan.InterestRate):
		return true
	case r.StartDate != nil && !models.DateOnly(*r.StartDate).Equal(models.DateOnly(plan.StartDate)):
		return true
	case r.PaymentDay != nil && *r.PaymentDay != plan.PaymentDay:
		return true
	}
	return false
}

// RecordPaymentRequest describes how an installment was settled
type RecordPaymentRequest struct {
	PaymentType models.PaymentType
	Reference   string
	Notes       string
}

func newPlanNo() string {
	return "PLN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// PreviewSchedule computes the installments a plan with the given terms would
// have, without storing anything
func (s *PaymentService) PreviewSchedule(req CreatePlanRequest) ([]amortization.Entry, error) {
	return amortization.ComputeSchedule(req.terms())
}

// CreatePlan validates the terms, computes the schedule and stores the plan
// with all of its installments atomically
func (s *PaymentService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*models.PaymentPlan, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	}
	entries, err := amortization.ComputeSchedule(req.terms())
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	plan := &models.PaymentPlan{
		PlanNo:               strings.TrimSpace(req.PlanNo),
		CustomerID:           req.CustomerID,
		Title:                title,
		Description:          req.Description,
		TotalAmount:          req.TotalAmount,
		DownPayment:          req.DownPayment,
		InterestRate:         req.InterestRate,
		NumberOfInstallments: req.NumberOfInstallments,
		StartDate:            models.DateOnly(req.StartDate),
		PaymentDay:           req.PaymentDay,
	}
	if plan.PlanNo == "" {
		plan.PlanNo = newPlanNo()
	}

	installments := make([]models.Installment, len(entries))
	for i, e := range entries {
		installments[i] = models.Installment{
			InstallmentNo: e.InstallmentNo,
			DueDate:       e.DueDate,
			Amount:        e.Amount,
			Status:        models.PaymentStatusPending,
		}
	}

	if err := s.store.CreatePlan(ctx, plan, installments); err != nil {
		s.log.WithError(err).WithField("plan_no", plan.PlanNo).Error("Failed to create payment plan")
		return nil, err
	}

	s.metrics.PlansCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"plan_id":      plan.ID,
		"plan_no":      plan.PlanNo,
		"customer_id":  plan.CustomerID,
		"installments": len(installments),
	}).Info("Payment plan created")
	return plan, nil
}

// GetPlan retrieves a plan without its installments
func (s *PaymentService) GetPlan(ctx context.Context, id int64) (*models.PaymentPlan, error) {
	return s.store.GetPlan(ctx, id)
}

// GetPlanWithInstallments retrieves a plan and its installments ordered by number
func (s *PaymentService) GetPlanWithInstallments(ctx context.Context, id int64) (*models.PaymentPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Installments, err = s.store.ListInstallmentsByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ListCustomerPlans retrieves the plans of a customer
func (s *PaymentService) ListCustomerPlans(ctx context.Context, customerID int64) ([]models.PaymentPlan, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.ListPlansByCustomer(ctx, customerID)
}

// UpdatePlan edits the stored plan fields. Once an installment is paid only the
// title and description may change. Installments are never regenerated.
func (s *PaymentService) UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (*models.PaymentPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.changesTerms(plan) {
		paid, err := s.store.CountPaidInstallments(ctx, id)
		if err != nil {
			return nil, err
		}
		if paid > 0 {
			return nil, fmt.Errorf("plan %d has paid installments, only title and description can change: %w",
				id, models.ErrInvalidInput)
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required: %w", models.ErrInvalidInput)
		}
		plan.Title = title
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.TotalAmount != nil {
		plan.TotalAmount = *req.TotalAmount
	}
	if req.DownPayment != nil {
		plan.DownPayment = *req.DownPayment
	}
	if req.InterestRate != nil {
		plan.InterestRate = *req.InterestRate
	}
	if req.StartDate != nil {
		plan.StartDate = models.DateOnly(*req.StartDate)
	}
	if req.PaymentDay != nil {
		plan.PaymentDay = *req.PaymentDay
	}

	terms := amortization.Terms{
		TotalAmount:          plan.TotalAmount,
		DownPayment:          plan.DownPayment,
		AnnualInterestRate:   plan.InterestRate,
		NumberOfInstallments: plan.NumberOfInstallments,
		StartDate:            plan.StartDate,
		PaymentDay:           plan.PaymentDay,
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	s.log.WithField("plan_id", id).Info("Payment plan updated")
	return plan, nil
}

// RecordPayment moves a pending installment to Paid and stamps the payment date
func (s *PaymentService) RecordPayment(ctx context.Context, installmentID int64, req RecordPaymentRequest) (*models.Installment, error) {
	if !req.PaymentType.Valid() {
		return nil, fmt.Errorf("unknown payment type %q: %w", req.PaymentType, models.ErrInvalidInput)
	}
	inst, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, err
	}
	if inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d is %s: %w", installmentID, inst.Status, models.ErrInvalidTransition)
	}

	paid, err := s.store.MarkInstallmentPaid(ctx, installmentID, models.PaymentRecord{
		PaymentDate: s.now(),
		PaymentType: req.PaymentType,
		Reference:   req.Reference,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InstallmentsPaid.Inc()
	s.log.WithFields(logrus.Fields{
		"plan_id":        paid.PaymentPlanID,
		"installment_id": paid.ID,
		"payment_type":   paid.PaymentType,
		"amount":         paid.Amount.StringFixed(2),
	}).Info("Installment paid")
	return paid, nil
}

// CancelPayment moves a pending installment to Cancelled
func (s *PaymentService) CancelPayment(ctx context.Context, installmentID int64, notes string) (*models.Installment, error) {
	inst, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, err
	}
	if inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d is %s: %w", installmentID, inst.Status, models.ErrInvalidTransition)
	}

	cancelled, err := s.store.CancelInstallment(ctx, installmentID, notes)
	if err != nil {
		return nil, err
	}

	s.metrics.InstallmentsCancelled.Inc()
	s.log.WithFields(logrus.Fields{
		"plan_id":        cancelled.PaymentPlanID,
		"installment_id": cancelled.ID,
	}).Info("Installment cancelled")
	return cancelled, nil
}

// ListLate retrieves pending installments of all plans due before asOf
func (s *PaymentService) ListLate(ctx context.Context, asOf time.Time) ([]models.Installment, error) {
	return s.store.ListPendingDueBefore(ctx, models.DateOnly(asOf))
}

// ListUpcoming retrieves pending installments due within windowDays of asOf,
// both ends inclusive
func (s *PaymentService) ListUpcoming(ctx context.Context, asOf time.Time, windowDays int) ([]models.Installment, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("window must not be negative, got %d: %w", windowDays, models.ErrInvalidInput)
	}
	from := models.DateOnly(asOf)
	return s.store.ListPendingDueBetween(ctx, from, from.AddDate(0, 0, windowDays))
}

// Summarize aggregates the installments of a plan as of now
func (s *PaymentService) Summarize(ctx context.Context, planID int64) (*models.PlanSummary, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	installments, err := s.store.ListInstallmentsByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return summarize(plan, installments, s.now()), nil
}

// RemainingBalance is total minus down payment minus everything paid. Cancelled
// amounts stay in the balance.
func (s *PaymentService) RemainingBalance(ctx context.Context, planID int64) (decimal.Decimal, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	installments, err := s.store.ListInstallmentsByPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	return summarize(plan, installments, s.now()).RemainingBalance, nil
}

func summarize(plan *models.PaymentPlan, installments []models.Installment, asOf time.Time) *models.PlanSummary {
	sum := &models.PlanSummary{
		PlanID:               plan.ID,
		TotalAmount:          plan.TotalAmount,
		DownPayment:          plan.DownPayment,
		TotalPaid:            decimal.Zero,
		TotalPending:         decimal.Zero,
		TotalLateAmount:      decimal.Zero,
		NumberOfInstallments: len(installments),
		IsCompleted:          len(installments) > 0,
	}
	for _, inst := range installments {
		switch inst.Status {
		case models.PaymentStatusPaid:
			sum.TotalPaid = sum.TotalPaid.Add(inst.Amount)
			sum.CompletedInstallments++
		case models.PaymentStatusPending:
			sum.TotalPending = sum.TotalPending.Add(inst.Amount)
			sum.PendingInstallments++
		}
		if inst.IsLate(asOf) {
			sum.LateInstallments++
			sum.TotalLateAmount = sum.TotalLateAmount.Add(inst.Amount)
		}
		if inst.Status != models.PaymentStatusPaid {
			sum.IsCompleted = false
		}
	}
	sum.RemainingBalance = plan.TotalAmount.Sub(plan.DownPayment).Sub(sum.TotalPaid)
	return sum
}

// CreateNotification stores a payment notification for an installment
func (s *PaymentService) CreateNotification(ctx context.Context, installmentID int64, typ models.NotificationType, message string) (*models.PaymentNotification, error) {
	if typ != models.NotificationUpcoming && typ != models.NotificationLate {
		return nil, fmt.Errorf("unknown notification type %q: %w", typ, models.ErrInvalidInput)
	}
	n := &models.PaymentNotification{InstallmentID: installmentID, Type: typ, Message: message}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"installment_id": installmentID, "type": typ}).Debug("Notification created")
	return n, nil
}

// HasNotification reports whether an installment already has a notification of the given type
func (s *PaymentService) HasNotification(ctx context.Context, installmentID int64, typ models.NotificationType) (bool, error) {
	return s.store.HasNotification(ctx, installmentID, typ)
}

// ListUnreadNotifications retrieves notifications not yet read
func (s *PaymentService) ListUnreadNotifications(ctx context.Context) ([]models.PaymentNotification, error) {
	return s.store.ListUnreadNotifications(ctx)
}

// MarkNotificationRead flags a notification as read
func (s *PaymentService) MarkNotificationRead(ctx context.Context, id int64) (*models.PaymentNotification, error) {
	return s.store.MarkNotificationRead(ctx, id)
}
