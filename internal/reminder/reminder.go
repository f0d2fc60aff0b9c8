package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/utils/email"
)

// Payments is the part of the payment service the job reads from and
// writes notifications to
type Payments interface {
	ListLate(ctx context.Context, asOf time.Time) ([]models.Installment, error)
	ListUpcoming(ctx context.Context, asOf time.Time, windowDays int) ([]models.Installment, error)
	HasNotification(ctx context.Context, installmentID int64, typ models.NotificationType) (bool, error)
	CreateNotification(ctx context.Context, installmentID int64, typ models.NotificationType, message string) (*models.PaymentNotification, error)
}

// Mailer delivers the reminder digest
type Mailer interface {
	SendDigest(to string, reminders []email.Reminder) error
}

// Job generates late and upcoming payment notifications
type Job struct {
	payments   Payments
	mailer     Mailer
	metrics    *metrics.Metrics
	log        *logrus.Logger
	notifyTo   string
	windowDays int
	now        func() time.Time
}

// NewJob creates a reminder job. A nil mailer or an empty notifyTo disables email.
func NewJob(payments Payments, mailer Mailer, m *metrics.Metrics, log *logrus.Logger, windowDays int, notifyTo string) *Job {
	return &Job{
		payments:   payments,
		mailer:     mailer,
		metrics:    m,
		log:        log,
		notifyTo:   notifyTo,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Run creates one notification per late or upcoming installment that does
// not have one of that type yet, and mails a digest of the new ones.
// It returns the number of notifications created.
func (j *Job) Run(ctx context.Context) (int, error) {
	asOf := models.DateOnly(j.now())

	late, err := j.payments.ListLate(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list late installments: %w", err)
	}
	upcoming, err := j.payments.ListUpcoming(ctx, asOf, j.windowDays)
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming installments: %w", err)
	}

	var digest []email.Reminder
	for _, batch := range []struct {
		typ          models.NotificationType
		installments []models.Installment
	}{
		{models.NotificationLate, late},
		{models.NotificationUpcoming, upcoming},
	} {
		for _, inst := range batch.installments {
			exists, err := j.payments.HasNotification(ctx, inst.ID, batch.typ)
			if err != nil {
				return len(digest), err
			}
			if exists {
				continue
			}
			if _, err := j.payments.CreateNotification(ctx, inst.ID, batch.typ, message(inst, batch.typ, asOf)); err != nil {
				return len(digest), err
			}
			j.metrics.RemindersGenerated.WithLabelValues(string(batch.typ)).Inc()
			digest = append(digest, email.Reminder{
				InstallmentID: inst.ID,
				PlanID:        inst.PaymentPlanID,
				InstallmentNo: inst.InstallmentNo,
				DueDate:       inst.DueDate,
				Amount:        inst.Amount,
				DaysLate:      inst.DaysLate(asOf),
			})
		}
	}

	j.log.WithFields(logrus.Fields{
		"late":     len(late),
		"upcoming": len(upcoming),
		"created":  len(digest),
	}).Info("Payment reminders generated")

	if j.mailer != nil && j.notifyTo != "" && len(digest) > 0 {
		if err := j.mailer.SendDigest(j.notifyTo, digest); err != nil {
			// notifications are stored; the digest is best effort
			j.log.Errorf("Failed to send reminder digest: %v", err)
		}
	}
	return len(digest), nil
}

func message(inst models.Installment, typ models.NotificationType, asOf time.Time) string {
	if typ == models.NotificationLate {
		return fmt.Sprintf("Installment %d of plan %d (%s) was due on %s and is %d days late",
			inst.InstallmentNo, inst.PaymentPlanID, inst.Amount.StringFixed(2),
			inst.DueDate.Format(time.DateOnly), inst.DaysLate(asOf))
	}
	return fmt.Sprintf("Installment %d of plan %d (%s) is due on %s",
		inst.InstallmentNo, inst.PaymentPlanID, inst.Amount.StringFixed(2), inst.DueDate.Format(time.DateOnly))
}

// Schedule registers the job on a cron scheduler using a standard five
// field spec. The caller starts and stops the returned scheduler.
func (j *Job) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := j.Run(context.Background()); err != nil {
			j.log.Errorf("Reminder job failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return c, nil
}
