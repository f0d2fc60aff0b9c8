package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/construction-accounting/internal/models"
)

const planColumns = `id, plan_no, customer_id, title, description, total_amount, down_payment,
		interest_rate, number_of_installments, start_date, payment_day, created_at, updated_at`

const installmentColumns = `id, payment_plan_id, installment_no, due_date, amount, status,
		payment_date, payment_type, payment_reference, notes, created_at, updated_at`

func scanPlan(row scanner) (*models.PaymentPlan, error) {
	p := &models.PaymentPlan{}
	err := row.Scan(&p.ID, &p.PlanNo, &p.CustomerID, &p.Title, &p.Description, &p.TotalAmount,
		&p.DownPayment, &p.InterestRate, &p.NumberOfInstallments, &p.StartDate, &p.PaymentDay,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.StartDate = models.DateOnly(p.StartDate)
	return p, nil
}

func scanInstallment(row scanner) (*models.Installment, error) {
	var (
		inst                          models.Installment
		paymentDate                   sql.NullTime
		paymentType, reference, notes sql.NullString
	)
	err := row.Scan(&inst.ID, &inst.PaymentPlanID, &inst.InstallmentNo, &inst.DueDate, &inst.Amount,
		&inst.Status, &paymentDate, &paymentType, &reference, &notes, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inst.DueDate = models.DateOnly(inst.DueDate)
	inst.PaymentDate = timePtr(paymentDate)
	inst.PaymentType = models.PaymentType(paymentType.String)
	inst.PaymentReference = reference.String
	inst.Notes = notes.String
	return &inst, nil
}

// CreatePlan stores a plan together with its installments in one transaction
func (r *Repository) CreatePlan(ctx context.Context, plan *models.PaymentPlan, installments []models.Installment) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
		INSERT INTO accounting.payment_plans (plan_no, customer_id, title, description, total_amount,
			down_payment, interest_rate, number_of_installments, start_date, payment_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, plan.PlanNo, plan.CustomerID, plan.Title, plan.Description,
			plan.TotalAmount, plan.DownPayment, plan.InterestRate, plan.NumberOfInstallments,
			plan.StartDate, plan.PaymentDay).
			Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
		if err != nil {
			return wrapError(err, "create payment plan")
		}

		insert := `
		INSERT INTO accounting.installments (payment_plan_id, installment_no, due_date, amount, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
		for i := range installments {
			inst := &installments[i]
			inst.PaymentPlanID = plan.ID
			err := tx.QueryRowContext(ctx, insert, plan.ID, inst.InstallmentNo, inst.DueDate, inst.Amount, inst.Status).
				Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
			if err != nil {
				return wrapError(err, fmt.Sprintf("create installment %d", inst.InstallmentNo))
			}
		}
		plan.Installments = installments
		return nil
	})
}

// GetPlan retrieves a plan by ID without its installments
func (r *Repository) GetPlan(ctx context.Context, id int64) (*models.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM accounting.payment_plans WHERE id = $1`
	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("payment plan %d", id))
	}
	return plan, nil
}

// ListPlansByCustomer retrieves all plans of a customer
func (r *Repository) ListPlansByCustomer(ctx context.Context, customerID int64) ([]models.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM accounting.payment_plans WHERE customer_id = $1 ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, wrapError(err, "list payment plans")
	}
	defer rows.Close()

	var plans []models.PaymentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, wrapError(err, "scan payment plan")
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list payment plans")
	}
	return plans, nil
}

// UpdatePlan writes the editable plan fields
func (r *Repository) UpdatePlan(ctx context.Context, plan *models.PaymentPlan) error {
	query := `
		UPDATE accounting.payment_plans
		SET title = $2, description = $3, total_amount = $4, down_payment = $5, interest_rate = $6,
			start_date = $7, payment_day = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, plan.ID, plan.Title, plan.Description, plan.TotalAmount,
		plan.DownPayment, plan.InterestRate, plan.StartDate, plan.PaymentDay).
		Scan(&plan.UpdatedAt)
	if err != nil {
		return wrapError(err, fmt.Sprintf("update payment plan %d", plan.ID))
	}
	return nil
}

// CountPaidInstallments returns how many installments of a plan are paid
func (r *Repository) CountPaidInstallments(ctx context.Context, planID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM accounting.installments WHERE payment_plan_id = $1 AND status = 'Paid'`
	if err := r.db.QueryRowContext(ctx, query, planID).Scan(&n); err != nil {
		return 0, wrapError(err, "count paid installments")
	}
	return n, nil
}

// GetInstallment retrieves an installment by ID
func (r *Repository) GetInstallment(ctx context.Context, id int64) (*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM accounting.installments WHERE id = $1`
	inst, err := scanInstallment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("installment %d", id))
	}
	return inst, nil
}

// ListInstallmentsByPlan retrieves the installments of a plan ordered by number
func (r *Repository) ListInstallmentsByPlan(ctx context.Context, planID int64) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + `
		FROM accounting.installments WHERE payment_plan_id = $1 ORDER BY installment_no`
	return r.queryInstallments(ctx, query, planID)
}

// ListPendingDueBefore retrieves pending installments due strictly before the given date
func (r *Repository) ListPendingDueBefore(ctx context.Context, before time.Time) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + `
		FROM accounting.installments
		WHERE status = 'Pending' AND due_date < $1
		ORDER BY due_date, id`
	return r.queryInstallments(ctx, query, before)
}

// ListPendingDueBetween retrieves pending installments due within [from, to]
func (r *Repository) ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + `
		FROM accounting.installments
		WHERE status = 'Pending' AND due_date BETWEEN $1 AND $2
		ORDER BY due_date, id`
	return r.queryInstallments(ctx, query, from, to)
}

func (r *Repository) queryInstallments(ctx context.Context, query string, args ...any) ([]models.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "list installments")
	}
	defer rows.Close()

	var out []models.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, wrapError(err, "scan installment")
		}
		out = append(out, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list installments")
	}
	return out, nil
}

// MarkInstallmentPaid moves a pending installment to Paid. An installment that
// is no longer pending is left untouched and ErrInvalidTransition is returned.
func (r *Repository) MarkInstallmentPaid(ctx context.Context, id int64, rec models.PaymentRecord) (*models.Installment, error) {
	query := `
		UPDATE accounting.installments
		SET status = 'Paid', payment_date = $2, payment_type = $3, payment_reference = $4, notes = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + installmentColumns
	inst, err := scanInstallment(r.db.QueryRowContext(ctx, query, id, rec.PaymentDate, string(rec.PaymentType),
		nullString(rec.Reference), nullString(rec.Notes)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("installment %d is not pending: %w", id, models.ErrInvalidTransition)
	}
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("record payment for installment %d", id))
	}
	return inst, nil
}

// CancelInstallment moves a pending installment to Cancelled. Notes are only
// overwritten when non-empty.
func (r *Repository) CancelInstallment(ctx context.Context, id int64, notes string) (*models.Installment, error) {
	query := `
		UPDATE accounting.installments
		SET status = 'Cancelled', notes = COALESCE($2, notes), updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + installmentColumns
	inst, err := scanInstallment(r.db.QueryRowContext(ctx, query, id, nullString(notes)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("installment %d is not pending: %w", id, models.ErrInvalidTransition)
	}
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("cancel installment %d", id))
	}
	return inst, nil
}
