package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
)

const propertyColumns = `id, property_no, title, type, status, address, city, district, postal_code, area,
		construction_year, features, purchase_price, current_value, monthly_rent, created_at, updated_at`

const deedColumns = `id, property_id, deed_no, registration_date, ownership_type, owner_name, owner_id_number,
		share_ratio, purchase_price, notes, is_active, created_at, updated_at`

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func scanProperty(row scanner) (*models.Property, error) {
	var (
		p                    models.Property
		district, postalCode sql.NullString
		constructionYear     sql.NullInt64
		features             []byte
	)
	var area, purchasePrice, currentValue, rent decimal.NullDecimal
	err := row.Scan(&p.ID, &p.PropertyNo, &p.Title, &p.Type, &p.Status, &p.Address, &p.City, &district,
		&postalCode, &area, &constructionYear, &features, &purchasePrice, &currentValue, &rent,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.District = district.String
	p.PostalCode = postalCode.String
	p.Area = decimalPtr(area)
	p.PurchasePrice = decimalPtr(purchasePrice)
	p.CurrentValue = decimalPtr(currentValue)
	p.MonthlyRent = decimalPtr(rent)
	if constructionYear.Valid {
		y := int(constructionYear.Int64)
		p.ConstructionYear = &y
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}
	return &p, nil
}

func encodeFeatures(f map[string]string) (any, error) {
	if len(f) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	return string(b), nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// CreateProperty creates a new property
func (r *Repository) CreateProperty(ctx context.Context, p *models.Property) error {
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO accounting.properties (property_no, title, type, status, address, city, district, postal_code,
			area, construction_year, features, purchase_price, current_value, monthly_rent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, p.PropertyNo, p.Title, p.Type, p.Status, p.Address, p.City,
		nullString(p.District), nullString(p.PostalCode), nullDecimal(p.Area), nullInt(p.ConstructionYear),
		features, nullDecimal(p.PurchasePrice), nullDecimal(p.CurrentValue), nullDecimal(p.MonthlyRent)).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return wrapError(err, "create property")
	}
	return nil
}

// UpdateProperty writes all property fields
func (r *Repository) UpdateProperty(ctx context.Context, p *models.Property) error {
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	query := `
		UPDATE accounting.properties
		SET property_no = $2, title = $3, type = $4, status = $5, address = $6, city = $7, district = $8,
			postal_code = $9, area = $10, construction_year = $11, features = $12, purchase_price = $13,
			current_value = $14, monthly_rent = $15, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query, p.ID, p.PropertyNo, p.Title, p.Type, p.Status, p.Address, p.City,
		nullString(p.District), nullString(p.PostalCode), nullDecimal(p.Area), nullInt(p.ConstructionYear),
		features, nullDecimal(p.PurchasePrice), nullDecimal(p.CurrentValue), nullDecimal(p.MonthlyRent)).
		Scan(&p.UpdatedAt)
	if err != nil {
		return wrapError(err, fmt.Sprintf("update property %d", p.ID))
	}
	return nil
}

// DeleteProperty removes a property; its deeds cascade
func (r *Repository) DeleteProperty(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounting.properties WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, fmt.Sprintf("delete property %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("property %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetProperty retrieves a property by ID
func (r *Repository) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM accounting.properties WHERE id = $1`
	p, err := scanProperty(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("property %d", id))
	}
	return p, nil
}

// GetPropertyByNo retrieves a property by registry number
func (r *Repository) GetPropertyByNo(ctx context.Context, propertyNo string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM accounting.properties WHERE property_no = $1`
	p, err := scanProperty(r.db.QueryRowContext(ctx, query, propertyNo))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("property %q", propertyNo))
	}
	return p, nil
}

// ListProperties retrieves properties, optionally filtered by status
func (r *Repository) ListProperties(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM accounting.properties`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY property_no`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "list properties")
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, wrapError(err, "scan property")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list properties")
	}
	return out, nil
}

func scanDeed(row scanner) (*models.Deed, error) {
	var (
		d             models.Deed
		ownerIDNumber sql.NullString
		notes         sql.NullString
		purchasePrice decimal.NullDecimal
	)
	err := row.Scan(&d.ID, &d.PropertyID, &d.DeedNo, &d.RegistrationDate, &d.OwnershipType, &d.OwnerName,
		&ownerIDNumber, &d.ShareRatio, &purchasePrice, &notes, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.RegistrationDate = models.DateOnly(d.RegistrationDate)
	d.OwnerIDNumber = ownerIDNumber.String
	d.Notes = notes.String
	d.PurchasePrice = decimalPtr(purchasePrice)
	return &d, nil
}

// CreateDeed stores a deed. An active deed deactivates the property's other
// active deeds in the same transaction.
func (r *Repository) CreateDeed(ctx context.Context, d *models.Deed) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if d.IsActive {
			_, err := tx.ExecContext(ctx, `
			UPDATE accounting.deeds SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE property_id = $1 AND is_active`, d.PropertyID)
			if err != nil {
				return wrapError(err, "deactivate deeds")
			}
		}
		query := `
		INSERT INTO accounting.deeds (property_id, deed_no, registration_date, ownership_type, owner_name,
			owner_id_number, share_ratio, purchase_price, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, d.PropertyID, d.DeedNo, d.RegistrationDate, d.OwnershipType,
			d.OwnerName, nullString(d.OwnerIDNumber), d.ShareRatio, nullDecimal(d.PurchasePrice),
			nullString(d.Notes), d.IsActive).
			Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return wrapError(err, "create deed")
		}
		return nil
	})
}

// ListDeeds retrieves deeds of a property, newest registration first
func (r *Repository) ListDeeds(ctx context.Context, propertyID int64, activeOnly bool) ([]models.Deed, error) {
	query := `SELECT ` + deedColumns + ` FROM accounting.deeds WHERE property_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY registration_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, wrapError(err, "list deeds")
	}
	defer rows.Close()

	var out []models.Deed
	for rows.Next() {
		d, err := scanDeed(rows)
		if err != nil {
			return nil, wrapError(err, "scan deed")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list deeds")
	}
	return out, nil
}
