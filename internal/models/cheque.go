package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChequeType distinguishes cheques from promissory bills
type ChequeType string

const (
	ChequeTypeCheque ChequeType = "cheque"
	ChequeTypeBill   ChequeType = "bill"
)

// ChequeStatus is the lifecycle state of a cheque
type ChequeStatus string

const (
	ChequeStatusPending   ChequeStatus = "pending"
	ChequeStatusCashed    ChequeStatus = "cashed"
	ChequeStatusBounced   ChequeStatus = "bounced"
	ChequeStatusCancelled ChequeStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ChequeStatus) Valid() bool {
	switch s {
	case ChequeStatusPending, ChequeStatusCashed, ChequeStatusBounced, ChequeStatusCancelled:
		return true
	}
	return false
}

// ChequeDirection tells whether the instrument was received or given
type ChequeDirection string

const (
	ChequeReceived ChequeDirection = "received"
	ChequeGiven    ChequeDirection = "given"
)

// Cheque represents a cheque or bill held or issued by the business
type Cheque struct {
	ID         int64           `json:"id"`
	ChequeNo   string          `json:"cheque_no"`
	Type       ChequeType      `json:"type"`
	Direction  ChequeDirection `json:"direction"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
	IssueDate  time.Time       `json:"issue_date"`
	BankName   string          `json:"bank_name"`
	BankBranch string          `json:"bank_branch"`
	DrawerName string          `json:"drawer_name"`
	Status     ChequeStatus    `json:"status"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ChequeTransactionType classifies audit log rows
type ChequeTransactionType string

const (
	ChequeStatusChange  ChequeTransactionType = "status_change"
	ChequeNoteAdded     ChequeTransactionType = "note_added"
	ChequeDetailUpdated ChequeTransactionType = "detail_updated"
)

// ChequeTransaction is one audit log row of a cheque
type ChequeTransaction struct {
	ID              int64                 `json:"id"`
	ChequeID        int64                 `json:"cheque_id"`
	TransactionType ChequeTransactionType `json:"transaction_type"`
	OldStatus       *ChequeStatus         `json:"old_status,omitempty"`
	NewStatus       *ChequeStatus         `json:"new_status,omitempty"`
	Description     string                `json:"description"`
	CreatedAt       time.Time             `json:"created_at"`
}
