package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
)

const customerColumns = `id, name, tax_number, phone, address, type, created_at, updated_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	c := &models.Customer{}
	if err := row.Scan(&c.ID, &c.Name, &c.TaxNumber, &c.Phone, &c.Address, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCustomer creates a customer and its zero balance row
func (r *Repository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
		INSERT INTO accounting.customers (name, tax_number, phone, address, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, c.Name, c.TaxNumber, c.Phone, c.Address, c.Type).
			Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return wrapError(err, "create customer")
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO accounting.customer_balances (customer_id) VALUES ($1)`, c.ID)
		if err != nil {
			return wrapError(err, "create customer balance")
		}
		return nil
	})
}

// UpdateCustomer writes all customer fields
func (r *Repository) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		UPDATE accounting.customers
		SET name = $2, tax_number = $3, phone = $4, address = $5, type = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.TaxNumber, c.Phone, c.Address, c.Type).
		Scan(&c.UpdatedAt)
	if err != nil {
		return wrapError(err, fmt.Sprintf("update customer %d", c.ID))
	}
	return nil
}

// DeleteCustomer removes a customer; balance and transactions cascade
func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounting.customers WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, fmt.Sprintf("delete customer %d", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err, fmt.Sprintf("delete customer %d", id))
	}
	if n == 0 {
		return fmt.Errorf("customer %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetCustomer retrieves a customer by ID
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM accounting.customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("customer %d", id))
	}
	return c, nil
}

// ListCustomers retrieves customers ordered by name
func (r *Repository) ListCustomers(ctx context.Context, offset, limit int) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM accounting.customers ORDER BY name, id OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, wrapError(err, "list customers")
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, wrapError(err, "scan customer")
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list customers")
	}
	return out, nil
}

// AddCustomerTransaction books a transaction and updates the running balance
func (r *Repository) AddCustomerTransaction(ctx context.Context, t *models.CustomerTransaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
		INSERT INTO accounting.customer_transactions (customer_id, date, type, description, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
		err := tx.QueryRowContext(ctx, query, t.CustomerID, t.Date, t.Type, t.Description, t.Amount).
			Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return wrapError(err, "create customer transaction")
		}

		debit, credit := decimal.Zero, decimal.Zero
		if t.Type == models.TransactionDebit {
			debit = t.Amount
		} else {
			credit = t.Amount
		}
		_, err = tx.ExecContext(ctx, `
		UPDATE accounting.customer_balances
		SET total_debit = total_debit + $2, total_credit = total_credit + $3, last_updated = CURRENT_TIMESTAMP
		WHERE customer_id = $1`, t.CustomerID, debit, credit)
		if err != nil {
			return wrapError(err, "update customer balance")
		}
		return nil
	})
}

// ListCustomerTransactions retrieves transactions newest first
func (r *Repository) ListCustomerTransactions(ctx context.Context, customerID int64, offset, limit int) ([]models.CustomerTransaction, error) {
	query := `
		SELECT id, customer_id, date, type, description, amount, created_at
		FROM accounting.customer_transactions
		WHERE customer_id = $1
		ORDER BY date DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, customerID, offset, limit)
	if err != nil {
		return nil, wrapError(err, "list customer transactions")
	}
	defer rows.Close()

	var out []models.CustomerTransaction
	for rows.Next() {
		var t models.CustomerTransaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Date, &t.Type, &t.Description, &t.Amount, &t.CreatedAt); err != nil {
			return nil, wrapError(err, "scan customer transaction")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list customer transactions")
	}
	return out, nil
}

// GetCustomerBalance retrieves the running totals of a customer
func (r *Repository) GetCustomerBalance(ctx context.Context, customerID int64) (*models.CustomerBalance, error) {
	b := &models.CustomerBalance{}
	query := `
		SELECT customer_id, total_debit, total_credit, last_updated
		FROM accounting.customer_balances WHERE customer_id = $1`
	err := r.db.QueryRowContext(ctx, query, customerID).
		Scan(&b.CustomerID, &b.TotalDebit, &b.TotalCredit, &b.LastUpdated)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("balance of customer %d", customerID))
	}
	return b, nil
}
