package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the stored state of an installment. Late is not a stored
// state; see Installment.IsLate.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusPaid      PaymentStatus = "Paid"
	PaymentStatusCancelled PaymentStatus = "Cancelled"
)

// PaymentType describes how an installment was settled
type PaymentType string

const (
	PaymentTypeCash         PaymentType = "Cash"
	PaymentTypeBankTransfer PaymentType = "Bank Transfer"
	PaymentTypeCreditCard   PaymentType = "Credit Card"
	PaymentTypeCheque       PaymentType = "Cheque"
)

// Valid reports whether t is one of the known payment types.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeCash, PaymentTypeBankTransfer, PaymentTypeCreditCard, PaymentTypeCheque:
		return true
	}
	return false
}

// PaymentPlan represents an installment sale agreed with a customer
type PaymentPlan struct {
	ID                   int64           `json:"id"`
	PlanNo               string          `json:"plan_no"`
	CustomerID           int64           `json:"customer_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	InterestRate         decimal.Decimal `json:"interest_rate"` // annual, percent
	NumberOfInstallments int             `json:"number_of_installments"`
	StartDate            time.Time       `json:"start_date"`
	PaymentDay           int             `json:"payment_day"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Installments         []Installment   `json:"installments,omitempty"`
}

// Installment represents one scheduled payment of a plan
type Installment struct {
	ID               int64           `json:"id"`
	PaymentPlanID    int64           `json:"payment_plan_id"`
	InstallmentNo    int             `json:"installment_no"`
	DueDate          time.Time       `json:"due_date"`
	Amount           decimal.Decimal `json:"amount"`
	Status           PaymentStatus   `json:"status"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	PaymentType      PaymentType     `json:"payment_type,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsLate reports whether the installment is still pending after its due date.
// It is always derived and never persisted.
func (i Installment) IsLate(asOf time.Time) bool {
	return i.Status == PaymentStatusPending && DateOnly(i.DueDate).Before(DateOnly(asOf))
}

// DaysLate returns the number of whole days past the due date, or 0.
func (i Installment) DaysLate(asOf time.Time) int {
	if !i.IsLate(asOf) {
		return 0
	}
	return int(DateOnly(asOf).Sub(DateOnly(i.DueDate)).Hours() / 24)
}

// PaymentRecord carries the fields stamped on an installment when it is paid
type PaymentRecord struct {
	PaymentDate time.Time
	PaymentType PaymentType
	Reference   string
	Notes       string
}

// PlanSummary aggregates the state of a plan's installments
type PlanSummary struct {
	PlanID                int64           `json:"plan_id"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	DownPayment           decimal.Decimal `json:"down_payment"`
	TotalPaid             decimal.Decimal `json:"total_paid"`
	TotalPending          decimal.Decimal `json:"total_pending"`
	NumberOfInstallments  int             `json:"number_of_installments"`
	CompletedInstallments int             `json:"completed_installments"`
	PendingInstallments   int             `json:"pending_installments"`
	LateInstallments      int             `json:"late_payments"`
	TotalLateAmount       decimal.Decimal `json:"total_late_amount"`
	RemainingBalance      decimal.Decimal `json:"remaining_balance"`
	IsCompleted           bool            `json:"is_completed"`
}

// NotificationType tells whether a reminder is about an upcoming or a late installment
type NotificationType string

const (
	NotificationUpcoming NotificationType = "upcoming"
	NotificationLate     NotificationType = "late"
)

// PaymentNotification is a reminder generated for an installment
type PaymentNotification struct {
	ID            int64            `json:"id"`
	InstallmentID int64            `json:"installment_id"`
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	SentDate      time.Time        `json:"sent_date"`
	IsRead        bool             `json:"is_read"`
}

// DateOnly drops the clock part of t, keeping its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
