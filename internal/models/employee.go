package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeStatus is the employment state
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "Active"
	EmployeeOnLeave    EmployeeStatus = "On Leave"
	EmployeeTerminated EmployeeStatus = "Terminated"
)

// Valid reports whether s is a known status.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeActive || s == EmployeeOnLeave || s == EmployeeTerminated
}

// RegularHoursPerDay is the daily threshold above which hours count as overtime.
const RegularHoursPerDay = 8.0

// Employee represents a worker paid by the hour
type Employee struct {
	ID         int64           `json:"id"`
	EmployeeNo string          `json:"employee_no"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	HireDate   time.Time       `json:"hire_date"`
	Position   string          `json:"position"`
	Department string          `json:"department"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	Status     EmployeeStatus  `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// AttendanceRecord represents one working day of an employee
type AttendanceRecord struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	Date       time.Time  `json:"date"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	TimeOut    *time.Time `json:"time_out,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TotalHours is the time between clock-in and clock-out, or 0 if incomplete.
func (a AttendanceRecord) TotalHours() float64 {
	if a.TimeIn == nil || a.TimeOut == nil || !a.TimeOut.After(*a.TimeIn) {
		return 0
	}
	return a.TimeOut.Sub(*a.TimeIn).Hours()
}

// RegularHours caps the day at RegularHoursPerDay.
func (a AttendanceRecord) RegularHours() float64 {
	return min(a.TotalHours(), RegularHoursPerDay)
}

// OvertimeHours is everything above RegularHoursPerDay.
func (a AttendanceRecord) OvertimeHours() float64 {
	return max(a.TotalHours()-RegularHoursPerDay, 0)
}

// Payroll is the pay computed for an employee over a date range
type Payroll struct {
	EmployeeID     int64           `json:"employee_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	RegularHours   decimal.Decimal `json:"regular_hours"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	RegularAmount  decimal.Decimal `json:"regular_amount"`
	OvertimeAmount decimal.Decimal `json:"overtime_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}
