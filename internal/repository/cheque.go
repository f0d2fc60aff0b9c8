package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/construction-accounting/internal/models"
)

const chequeColumns = `id, cheque_no, type, direction, amount, due_date, issue_date, bank_name, bank_branch,
		drawer_name, status, customer_id, notes, created_at, updated_at`

// ChequeFilter narrows ListCheques. Zero values do not filter.
type ChequeFilter struct {
	Status    models.ChequeStatus
	Direction models.ChequeDirection
	Offset    int
	Limit     int
}

func scanCheque(row scanner) (*models.Cheque, error) {
	var (
		c          models.Cheque
		customerID sql.NullInt64
		notes      sql.NullString
	)
	err := row.Scan(&c.ID, &c.ChequeNo, &c.Type, &c.Direction, &c.Amount, &c.DueDate, &c.IssueDate,
		&c.BankName, &c.BankBranch, &c.DrawerName, &c.Status, &customerID, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DueDate = models.DateOnly(c.DueDate)
	c.IssueDate = models.DateOnly(c.IssueDate)
	if customerID.Valid {
		id := customerID.Int64
		c.CustomerID = &id
	}
	c.Notes = notes.String
	return &c, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// CreateCheque stores a cheque and its opening audit row
func (r *Repository) CreateCheque(ctx context.Context, c *models.Cheque, entry *models.ChequeTransaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
		INSERT INTO accounting.cheques (cheque_no, type, direction, amount, due_date, issue_date, bank_name,
			bank_branch, drawer_name, status, customer_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, c.ChequeNo, c.Type, c.Direction, c.Amount, c.DueDate, c.IssueDate,
			c.BankName, c.BankBranch, c.DrawerName, c.Status, nullInt64(c.CustomerID), nullString(c.Notes)).
			Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return wrapError(err, "create cheque")
		}
		entry.ChequeID = c.ID
		return insertChequeTransaction(ctx, tx, entry)
	})
}

// UpdateCheque writes the cheque's detail and status fields and appends an audit row
func (r *Repository) UpdateCheque(ctx context.Context, c *models.Cheque, entry *models.ChequeTransaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
		UPDATE accounting.cheques
		SET cheque_no = $2, amount = $3, due_date = $4, bank_name = $5, bank_branch = $6, drawer_name = $7,
			status = $8, notes = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
		err := tx.QueryRowContext(ctx, query, c.ID, c.ChequeNo, c.Amount, c.DueDate, c.BankName, c.BankBranch,
			c.DrawerName, c.Status, nullString(c.Notes)).
			Scan(&c.UpdatedAt)
		if err != nil {
			return wrapError(err, fmt.Sprintf("update cheque %d", c.ID))
		}
		entry.ChequeID = c.ID
		return insertChequeTransaction(ctx, tx, entry)
	})
}

// AddChequeTransaction appends an audit row without touching the cheque
func (r *Repository) AddChequeTransaction(ctx context.Context, entry *models.ChequeTransaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return insertChequeTransaction(ctx, tx, entry)
	})
}

func insertChequeTransaction(ctx context.Context, tx *sql.Tx, e *models.ChequeTransaction) error {
	var oldStatus, newStatus sql.NullString
	if e.OldStatus != nil {
		oldStatus = nullString(string(*e.OldStatus))
	}
	if e.NewStatus != nil {
		newStatus = nullString(string(*e.NewStatus))
	}
	query := `
		INSERT INTO accounting.cheque_transactions (cheque_id, transaction_type, old_status, new_status,
			description, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query, e.ChequeID, e.TransactionType, oldStatus, newStatus, e.Description).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return wrapError(err, "create cheque transaction")
	}
	return nil
}

// GetCheque retrieves a cheque by ID
func (r *Repository) GetCheque(ctx context.Context, id int64) (*models.Cheque, error) {
	query := `SELECT ` + chequeColumns + ` FROM accounting.cheques WHERE id = $1`
	c, err := scanCheque(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("cheque %d", id))
	}
	return c, nil
}

// ListCheques retrieves cheques ordered by due date
func (r *Repository) ListCheques(ctx context.Context, f ChequeFilter) ([]models.Cheque, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Direction != "" {
		args = append(args, f.Direction)
		where = append(where, fmt.Sprintf("direction = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + chequeColumns + ` FROM accounting.cheques`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, f.Offset, f.Limit)
	fmt.Fprintf(&b, " ORDER BY due_date, id OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	return r.queryCheques(ctx, b.String(), args...)
}

// ListPendingChequesDueBy retrieves pending cheques due on or before the given date
func (r *Repository) ListPendingChequesDueBy(ctx context.Context, by time.Time) ([]models.Cheque, error) {
	query := `SELECT ` + chequeColumns + `
		FROM accounting.cheques
		WHERE status = 'pending' AND due_date <= $1
		ORDER BY due_date, id`
	return r.queryCheques(ctx, query, by)
}

func (r *Repository) queryCheques(ctx context.Context, query string, args ...any) ([]models.Cheque, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "list cheques")
	}
	defer rows.Close()

	var out []models.Cheque
	for rows.Next() {
		c, err := scanCheque(rows)
		if err != nil {
			return nil, wrapError(err, "scan cheque")
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list cheques")
	}
	return out, nil
}

// ListChequeTransactions retrieves the audit log of a cheque, newest first
func (r *Repository) ListChequeTransactions(ctx context.Context, chequeID int64, offset, limit int) ([]models.ChequeTransaction, error) {
	query := `
		SELECT id, cheque_id, transaction_type, old_status, new_status, description, created_at
		FROM accounting.cheque_transactions
		WHERE cheque_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, chequeID, offset, limit)
	if err != nil {
		return nil, wrapError(err, "list cheque transactions")
	}
	defer rows.Close()

	var out []models.ChequeTransaction
	for rows.Next() {
		var (
			e                    models.ChequeTransaction
			oldStatus, newStatus sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ChequeID, &e.TransactionType, &oldStatus, &newStatus, &e.Description, &e.CreatedAt); err != nil {
			return nil, wrapError(err, "scan cheque transaction")
		}
		if oldStatus.Valid {
			s := models.ChequeStatus(oldStatus.String)
			e.OldStatus = &s
		}
		if newStatus.Valid {
			s := models.ChequeStatus(newStatus.String)
			e.NewStatus = &s
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list cheque transactions")
	}
	return out, nil
}
