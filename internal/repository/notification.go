package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/construction-accounting/internal/models"
)

// CreateNotification stores a payment notification
func (r *Repository) CreateNotification(ctx context.Context, n *models.PaymentNotification) error {
	query := `
		INSERT INTO accounting.payment_notifications (installment_id, type, message, sent_date, is_read)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, FALSE)
		RETURNING id, sent_date, is_read`
	err := r.db.QueryRowContext(ctx, query, n.InstallmentID, n.Type, n.Message).
		Scan(&n.ID, &n.SentDate, &n.IsRead)
	if err != nil {
		return wrapError(err, "create notification")
	}
	return nil
}

// HasNotification reports whether a notification of the given type exists for an installment
func (r *Repository) HasNotification(ctx context.Context, installmentID int64, typ models.NotificationType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounting.payment_notifications WHERE installment_id = $1 AND type = $2)`
	if err := r.db.QueryRowContext(ctx, query, installmentID, typ).Scan(&exists); err != nil {
		return false, wrapError(err, "check notification")
	}
	return exists, nil
}

// ListUnreadNotifications retrieves notifications not yet marked as read
func (r *Repository) ListUnreadNotifications(ctx context.Context) ([]models.PaymentNotification, error) {
	query := `
		SELECT id, installment_id, type, message, sent_date, is_read
		FROM accounting.payment_notifications
		WHERE is_read = FALSE
		ORDER BY sent_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError(err, "list notifications")
	}
	defer rows.Close()

	var out []models.PaymentNotification
	for rows.Next() {
		var n models.PaymentNotification
		if err := rows.Scan(&n.ID, &n.InstallmentID, &n.Type, &n.Message, &n.SentDate, &n.IsRead); err != nil {
			return nil, wrapError(err, "scan notification")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "list notifications")
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read
func (r *Repository) MarkNotificationRead(ctx context.Context, id int64) (*models.PaymentNotification, error) {
	n := &models.PaymentNotification{}
	query := `
		UPDATE accounting.payment_notifications SET is_read = TRUE
		WHERE id = $1
		RETURNING id, installment_id, type, message, sent_date, is_read`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&n.ID, &n.InstallmentID, &n.Type, &n.Message, &n.SentDate, &n.IsRead)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("notification %d", id))
	}
	return n, nil
}
