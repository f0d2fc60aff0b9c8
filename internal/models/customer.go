package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType separates customers from suppliers
type CustomerType string

const (
	CustomerTypeCustomer CustomerType = "customer"
	CustomerTypeSupplier CustomerType = "supplier"
	CustomerTypeBoth     CustomerType = "both"
)

// Valid reports whether t is a known customer type.
func (t CustomerType) Valid() bool {
	return t == CustomerTypeCustomer || t == CustomerTypeSupplier || t == CustomerTypeBoth
}

// Customer represents a current account holder
type Customer struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	TaxNumber string       `json:"tax_number"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	Type      CustomerType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TransactionType is the side of a customer transaction
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// CustomerTransaction represents a debit or credit booked on a customer account
type CustomerTransaction struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CustomerBalance holds running debit and credit totals
type CustomerBalance struct {
	CustomerID  int64           `json:"customer_id"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Net is credit minus debit.
func (b CustomerBalance) Net() decimal.Decimal {
	return b.TotalCredit.Sub(b.TotalDebit)
}
