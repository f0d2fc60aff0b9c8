package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/models"
)

var overtimeMultiplier = decimal.NewFromFloat(1.5)

// EmployeeStore persists employees and attendance
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e *models.Employee) error
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	GetEmployeeByNo(ctx context.Context, employeeNo string) (*models.Employee, error)
	ListEmployees(ctx context.Context, status models.EmployeeStatus) ([]models.Employee, error)
	CreateAttendance(ctx context.Context, a *models.AttendanceRecord) error
	UpdateAttendance(ctx context.Context, a *models.AttendanceRecord) error
	GetAttendance(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	ListAttendance(ctx context.Context, employeeID int64, from, to *time.Time) ([]models.AttendanceRecord, error)
}

// EmployeeService manages staff, attendance and payroll
type EmployeeService struct {
	store EmployeeStore
	log   *logrus.Logger
}

// NewEmployeeService initializes a new employee service
func NewEmployeeService(store EmployeeStore, log *logrus.Logger) *EmployeeService {
	return &EmployeeService{store: store, log: log}
}

type CreateEmployeeRequest struct {
	EmployeeNo string
	FirstName  string
	LastName   string
	Phone      string
	Email      string
	HireDate   time.Time
	Position   string
	Department string
	HourlyRate decimal.Decimal
	Status     models.EmployeeStatus
}

// UpdateEmployeeRequest lists the editable employee fields. Nil fields are left unchanged.
type UpdateEmployeeRequest struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	Email      *string
	Position   *string
	Department *string
	HourlyRate *decimal.Decimal
	Status     *models.EmployeeStatus
}

type AttendanceRequest struct {
	Date    time.Time
	TimeIn  *time.Time
	TimeOut *time.Time
	Notes   string
}

// UpdateAttendanceRequest lists the editable attendance fields. Nil fields are left unchanged.
type UpdateAttendanceRequest struct {
	TimeIn  *time.Time
	TimeOut *time.Time
	Notes   *string
}

func validateEmployee(e *models.Employee) error {
	switch {
	case e.EmployeeNo == "":
		return fmt.Errorf("employee number is required: %w", models.ErrInvalidInput)
	case e.FirstName == "" || e.LastName == "":
		return fmt.Errorf("first and last name are required: %w", models.ErrInvalidInput)
	case e.HireDate.IsZero():
		return fmt.Errorf("hire date is required: %w", models.ErrInvalidInput)
	case e.HourlyRate.IsNegative():
		return fmt.Errorf("hourly rate must not be negative: %w", models.ErrInvalidInput)
	case !e.Status.Valid():
		return fmt.Errorf("unknown employee status %q: %w", e.Status, models.ErrInvalidInput)
	}
	return nil
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	e := &models.Employee{
		EmployeeNo: strings.TrimSpace(req.EmployeeNo),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      req.Phone,
		Email:      req.Email,
		HireDate:   models.DateOnly(req.HireDate),
		Position:   req.Position,
		Department: req.Department,
		HourlyRate: req.HourlyRate.Round(2),
		Status:     req.Status,
	}
	if e.Status == "" {
		e.Status = models.EmployeeActive
	}
	if err := validateEmployee(e); err != nil {
		return nil, err
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.log.WithField("employee_id", e.ID).Infof("Employee created: %s", e.FullName())
	return e, nil
}

func (s *EmployeeService) UpdateEmployee(ctx context.Context, id int64, req UpdateEmployeeRequest) (*models.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		e.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		e.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		e.Phone = *req.Phone
	}
	if req.Email != nil {
		e.Email = *req.Email
	}
	if req.Position != nil {
		e.Position = *req.Position
	}
	if req.Department != nil {
		e.Department = *req.Department
	}
	if req.HourlyRate != nil {
		e.HourlyRate = req.HourlyRate.Round(2)
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if err := validateEmployee(e); err != nil {
		return nil, err
	}
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.log.WithField("employee_id", id).Info("Employee updated")
	return e, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.log.WithField("employee_id", id).Info("Employee deleted")
	return nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *EmployeeService) GetEmployeeByNo(ctx context.Context, employeeNo string) (*models.Employee, error) {
	return s.store.GetEmployeeByNo(ctx, strings.TrimSpace(employeeNo))
}

// ListEmployees retrieves employees; an empty status lists everyone
func (s *EmployeeService) ListEmployees(ctx context.Context, status models.EmployeeStatus) ([]models.Employee, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown employee status %q: %w", status, models.ErrInvalidInput)
	}
	return s.store.ListEmployees(ctx, status)
}

func validateAttendance(a *models.AttendanceRecord) error {
	if a.Date.IsZero() {
		return fmt.Errorf("date is required: %w", models.ErrInvalidInput)
	}
	if a.TimeIn != nil && a.TimeOut != nil && a.TimeOut.Before(*a.TimeIn) {
		return fmt.Errorf("time out is before time in: %w", models.ErrInvalidInput)
	}
	return nil
}

// RecordAttendance stores a working day for an employee
func (s *EmployeeService) RecordAttendance(ctx context.Context, employeeID int64, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	a := &models.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       req.Date,
		TimeIn:     req.TimeIn,
		TimeOut:    req.TimeOut,
		Notes:      req.Notes,
	}
	if !a.Date.IsZero() {
		a.Date = models.DateOnly(a.Date)
	}
	if err := validateAttendance(a); err != nil {
		return nil, err
	}
	if err := s.store.CreateAttendance(ctx, a); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"date":        a.Date.Format(time.DateOnly),
	}).Info("Attendance recorded")
	return a, nil
}

func (s *EmployeeService) UpdateAttendance(ctx context.Context, id int64, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	a, err := s.store.GetAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TimeIn != nil {
		a.TimeIn = req.TimeIn
	}
	if req.TimeOut != nil {
		a.TimeOut = req.TimeOut
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if err := validateAttendance(a); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAttendance(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttendance retrieves attendance newest first. Nil bounds are open.
func (s *EmployeeService) ListAttendance(ctx context.Context, employeeID int64, from, to *time.Time) ([]models.AttendanceRecord, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(ctx, employeeID, from, to)
}

// CalculatePayroll sums the attendance between from and to, both inclusive.
// Hours above the daily threshold are paid at 1.5 times the hourly rate.
func (s *EmployeeService) CalculatePayroll(ctx context.Context, employeeID int64, from, to time.Time) (*models.Payroll, error) {
	from, to = models.DateOnly(from), models.DateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("period ends before it starts: %w", models.ErrInvalidInput)
	}
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListAttendance(ctx, employeeID, &from, &to)
	if err != nil {
		return nil, err
	}

	var regular, overtime float64
	for _, r := range records {
		regular += r.RegularHours()
		overtime += r.OvertimeHours()
	}

	p := &models.Payroll{
		EmployeeID:    employeeID,
		From:          from,
		To:            to,
		RegularHours:  decimal.NewFromFloat(regular).Round(2),
		OvertimeHours: decimal.NewFromFloat(overtime).Round(2),
	}
	p.RegularAmount = p.RegularHours.Mul(e.HourlyRate).Round(2)
	p.OvertimeAmount = p.OvertimeHours.Mul(e.HourlyRate).Mul(overtimeMultiplier).Round(2)
	p.TotalAmount = p.RegularAmount.Add(p.OvertimeAmount)
	return p, nil
}
