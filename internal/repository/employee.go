package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/construction-accounting/internal/models"
)

const employeeColumns = `id, employee_no, first_name, last_name, phone, email, hire_date, position,
		department, hourly_rate, status, created_at, updated_at`

const attendanceColumns = `id, employee_id, date, time_in, time_out, notes, created_at, updated_at`

func scanEmployee(row scanner) (*models.Employee, error) {
	e := &models.Employee{}
	err := row.Scan(&e.ID, &e.EmployeeNo, &e.FirstName, &e.LastName, &e.Phone, &e.Email, &e.HireDate,
		&e.Position, &e.Department, &e.HourlyRate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.HireDate = models.DateOnly(e.HireDate)
	return e, nil
}

func scanAttendance(row scanner) (*models.AttendanceRecord, error) {
	var (
		a               models.AttendanceRecord
		timeIn, timeOut sql.NullTime
		notes           sql.NullString
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.Date, &timeIn, &timeOut, &notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Date = models.DateOnly(a.Date)
	a.TimeIn = timePtr(timeIn)
	a.TimeOut = timePtr(timeOut)
	a.Notes = notes.String
	return &a, nil
}

// CreateEmployee creates a new employee
func (r *Repository) CreateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
		INSERT INTO accounting.employees (employee_no, first_name, last_name, phone, email, hire_date, position,
			department, hourly_rate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, e.EmployeeNo, e.FirstName, e.LastName, e.Phone, e.Email, e.HireDate,
		e.Position, e.Department, e.HourlyRate, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return wrapError(err, "create employee")
	}
	return nil
}

// UpdateEmployee writes all employee fields
func (r *Repository) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
		UPDATE accounting.employees
		SET employee_no = $2, first_name = $3, last_name = $4, phone = $5, email = $6, hire_date = $7,
			position = $8, department = $9, hourly_rate = $10, status = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.EmployeeNo, e.FirstName, e.LastName, e.Phone, e.Email,
		e.HireDate, e.Position, e.Department, e.HourlyRate, e.Status).
		Scan(&e.UpdatedAt)
	if err != nil {
		return wrapError(err, fmt.Sprintf("update employee %d", e.ID))
	}
	return nil
}

// DeleteEmployee removes an employee and its attendance records
func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounting.employees WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, fmt.Sprintf("delete employee %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("employee %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetEmployee retrieves an employee by ID
func (r *Repository) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM accounting.employees WHERE id = $1`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("employee %d", id))
	}
	return e, nil
}

// GetEmployeeByNo retrieves an employee by registry number
func (r *Repository) GetEmployeeByNo(ctx context.Context, employeeNo string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM accounting.employees WHERE employee_no = $1`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, employeeNo))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("employee %q", employeeNo))
	}
	return e, nil
}

// ListEmployees retrieves employees, optionally filtered by status
func (r *Repository) ListEmployees(ctx context.Context, status models.EmployeeStatus) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM accounting.employees`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY last_name, first_name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "list employees")
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, wrapError(err, "scan employee")
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list employees")
	}
	return out, nil
}

// CreateAttendance stores an attendance record
func (r *Repository) CreateAttendance(ctx context.Context, a *models.AttendanceRecord) error {
	query := `
		INSERT INTO accounting.attendance_records (employee_id, date, time_in, time_out, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.EmployeeID, a.Date, nullTime(a.TimeIn), nullTime(a.TimeOut), nullString(a.Notes)).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return wrapError(err, "create attendance record")
	}
	return nil
}

// UpdateAttendance writes all attendance fields
func (r *Repository) UpdateAttendance(ctx context.Context, a *models.AttendanceRecord) error {
	query := `
		UPDATE accounting.attendance_records
		SET date = $2, time_in = $3, time_out = $4, notes = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Date, nullTime(a.TimeIn), nullTime(a.TimeOut), nullString(a.Notes)).
		Scan(&a.UpdatedAt)
	if err != nil {
		return wrapError(err, fmt.Sprintf("update attendance record %d", a.ID))
	}
	return nil
}

// GetAttendance retrieves an attendance record by ID
func (r *Repository) GetAttendance(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM accounting.attendance_records WHERE id = $1`
	a, err := scanAttendance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("attendance record %d", id))
	}
	return a, nil
}

// ListAttendance retrieves attendance of an employee newest first. Nil bounds
// are open.
func (r *Repository) ListAttendance(ctx context.Context, employeeID int64, from, to *time.Time) ([]models.AttendanceRecord, error) {
	where := []string{"employee_id = $1"}
	args := []any{employeeID}
	if from != nil {
		args = append(args, *from)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	query := `SELECT ` + attendanceColumns + ` FROM accounting.attendance_records WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "list attendance")
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, wrapError(err, "scan attendance record")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list attendance")
	}
	return out, nil
}
