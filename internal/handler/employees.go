package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

type employeeRequest struct {
	EmployeeNo string                `json:"employee_no"`
	FirstName  string                `json:"first_name"`
	LastName   string                `json:"last_name"`
	Phone      string                `json:"phone"`
	Email      string                `json:"email"`
	HireDate   Date                  `json:"hire_date"`
	Position   string                `json:"position"`
	Department string                `json:"department"`
	HourlyRate decimal.Decimal       `json:"hourly_rate"`
	Status     models.EmployeeStatus `json:"status"`
}

type updateEmployeeRequest struct {
	FirstName  *string                `json:"first_name"`
	LastName   *string                `json:"last_name"`
	Phone      *string                `json:"phone"`
	Email      *string                `json:"email"`
	Position   *string                `json:"position"`
	Department *string                `json:"department"`
	HourlyRate *decimal.Decimal       `json:"hourly_rate"`
	Status     *models.EmployeeStatus `json:"status"`
}

type attendanceRequest struct {
	Date    Date       `json:"date"`
	TimeIn  *time.Time `json:"time_in"`
	TimeOut *time.Time `json:"time_out"`
	Notes   string     `json:"notes"`
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.svc.Employees.CreateEmployee(r.Context(), service.CreateEmployeeRequest{
		EmployeeNo: req.EmployeeNo,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Email:      req.Email,
		HireDate:   req.HireDate.Time,
		Position:   req.Position,
		Department: req.Department,
		HourlyRate: req.HourlyRate,
		Status:     req.Status,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.Employees.ListEmployees(r.Context(), models.EmployeeStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.svc.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) GetEmployeeByNo(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Employees.GetEmployeeByNo(r.Context(), mux.Vars(r)["no"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateEmployeeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.svc.Employees.UpdateEmployee(r.Context(), id, service.UpdateEmployeeRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Employees.DeleteEmployee(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req attendanceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Employees.RecordAttendance(r.Context(), id, service.AttendanceRequest{
		Date:    req.Date.Time,
		TimeIn:  req.TimeIn,
		TimeOut: req.TimeOut,
		Notes:   req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		TimeIn  *time.Time `json:"time_in"`
		TimeOut *time.Time `json:"time_out"`
		Notes   *string    `json:"notes"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Employees.UpdateAttendance(r.Context(), id, service.UpdateAttendanceRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, err := h.svc.Employees.ListAttendance(r.Context(), id, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) Payroll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if from == nil || to == nil {
		h.writeError(w, r, fmt.Errorf("from and to are required: %w", models.ErrInvalidInput))
		return
	}
	p, err := h.svc.Employees.CalculatePayroll(r.Context(), id, *from, *to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
