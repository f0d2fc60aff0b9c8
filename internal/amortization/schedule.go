// Package amortization turns installment plan terms into a dated payment
// schedule.
package amortization

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
)

// Limits of the stored columns: amounts are NUMERIC(14,2), the interest rate
// NUMERIC(7,4). MaxInstallments is fifty years of monthly payments.
const MaxInstallments = 600

var (
	MaxAmount       = decimal.RequireFromString("999999999999.99")
	MaxInterestRate = decimal.RequireFromString("999.9999")
)

// Terms are the inputs of a schedule computation.
type Terms struct {
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	AnnualInterestRate   decimal.Decimal // percent, e.g. 12 for 12%
	NumberOfInstallments int
	StartDate            time.Time
	PaymentDay           int // 1-31
}

// Entry is one row of a computed schedule.
type Entry struct {
	InstallmentNo int
	DueDate       time.Time
	Amount        decimal.Decimal
}

// Financed returns the amount to be spread over the installments.
func (t Terms) Financed() decimal.Decimal {
	return t.TotalAmount.Sub(t.DownPayment)
}

// Validate rejects terms that cannot produce a schedule.
func (t Terms) Validate() error {
	if t.NumberOfInstallments <= 0 {
		return fmt.Errorf("%w: number of installments must be positive, got %d", models.ErrInvalidInput, t.NumberOfInstallments)
	}
	if t.NumberOfInstallments > MaxInstallments {
		return fmt.Errorf("%w: number of installments must not exceed %d, got %d", models.ErrInvalidInput, MaxInstallments, t.NumberOfInstallments)
	}
	if t.TotalAmount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: total amount must not exceed %s", models.ErrInvalidInput, MaxAmount)
	}
	if t.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down payment must not be negative", models.ErrInvalidInput)
	}
	if t.TotalAmount.LessThan(t.DownPayment) {
		return fmt.Errorf("%w: down payment %s exceeds total amount %s", models.ErrInvalidInput, t.DownPayment, t.TotalAmount)
	}
	if t.AnnualInterestRate.IsNegative() {
		return fmt.Errorf("%w: interest rate must not be negative", models.ErrInvalidInput)
	}
	if t.AnnualInterestRate.GreaterThan(MaxInterestRate) {
		return fmt.Errorf("%w: interest rate must not exceed %s", models.ErrInvalidInput, MaxInterestRate)
	}
	if t.PaymentDay < 1 || t.PaymentDay > 31 {
		return fmt.Errorf("%w: payment day must be between 1 and 31, got %d", models.ErrInvalidInput, t.PaymentDay)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", models.ErrInvalidInput)
	}
	return nil
}

// ComputeSchedule returns one entry per installment. Every entry carries the
// same amount; the rounding difference against the financed amount is left
// as is.
func ComputeSchedule(t Terms) ([]Entry, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	amount := Payment(t.Financed(), t.AnnualInterestRate, t.NumberOfInstallments)
	if amount.GreaterThan(MaxAmount) {
		return nil, fmt.Errorf("%w: installment amount %s exceeds %s", models.ErrInvalidInput, amount, MaxAmount)
	}
	first := FirstDueDate(t.StartDate, t.PaymentDay)

	schedule := make([]Entry, 0, t.NumberOfInstallments)
	for i := 0; i < t.NumberOfInstallments; i++ {
		schedule = append(schedule, Entry{
			InstallmentNo: i + 1,
			DueDate:       AddMonths(first, i, t.PaymentDay),
			Amount:        amount,
		})
	}
	return schedule, nil
}

// Payment computes the level installment amount, rounded half-up to cents.
//
//	rate == 0: financed / n
//	rate  > 0: financed * r / (1 - (1+r)^-n), r = rate / 12 / 100
//
// The negative exponent keeps the ratio finite for long terms, where it
// tends to r.
func Payment(financed, annualRate decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	if annualRate.IsZero() {
		return financed.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	// The power is taken in float64, the money arithmetic stays in decimal.
	r := annualRate.InexactFloat64() / 12 / 100
	denom := 1 - math.Pow(1+r, -float64(n))
	if denom <= 0 {
		// r is below float64 resolution around 1
		return financed.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return financed.Mul(decimal.NewFromFloat(r / denom)).Round(2)
}

// FirstDueDate anchors the schedule on paymentDay: in the start month when the
// day has not passed yet, otherwise in the following month.
func FirstDueDate(start time.Time, paymentDay int) time.Time {
	months := 0
	if paymentDay < start.Day() {
		months = 1
	}
	return AddMonths(start, months, paymentDay)
}

// AddMonths moves date by months calendar months and sets the day to
// anchorDay, clamped to the length of the target month. The result is a UTC
// date without a clock part.
func AddMonths(date time.Time, months, anchorDay int) time.Time {
	y, m, _ := date.Date()
	idx := int(m) - 1 + months
	y += idx / 12
	idx %= 12
	if idx < 0 {
		idx += 12
		y--
	}
	month := time.Month(idx + 1)

	day := anchorDay
	if last := DaysIn(y, month); day > last {
		day = last
	}
	return time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// IsLeapYear uses the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
