package reminder

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/utils/email"
)

type notificationKey struct {
	id  int64
	typ models.NotificationType
}

type fakePayments struct {
	late, upcoming []models.Installment
	lateAsOf       time.Time
	window         int
	created        map[notificationKey]string
	listErr        error
}

func (f *fakePayments) ListLate(_ context.Context, asOf time.Time) ([]models.Installment, error) {
	f.lateAsOf = asOf
	return f.late, f.listErr
}

func (f *fakePayments) ListUpcoming(_ context.Context, _ time.Time, windowDays int) ([]models.Installment, error) {
	f.window = windowDays
	return f.upcoming, nil
}

func (f *fakePayments) HasNotification(_ context.Context, id int64, typ models.NotificationType) (bool, error) {
	_, ok := f.created[notificationKey{id, typ}]
	return ok, nil
}

func (f *fakePayments) CreateNotification(_ context.Context, id int64, typ models.NotificationType, msg string) (*models.PaymentNotification, error) {
	f.created[notificationKey{id, typ}] = msg
	return &models.PaymentNotification{InstallmentID: id, Type: typ, Message: msg}, nil
}

type fakeMailer struct {
	to      string
	digests [][]email.Reminder
	err     error
}

func (m *fakeMailer) SendDigest(to string, reminders []email.Reminder) error {
	m.to = to
	m.digests = append(m.digests, reminders)
	return m.err
}

func installment(id int64, no int, due time.Time) models.Installment {
	return models.Installment{
		ID: id, PaymentPlanID: 5, InstallmentNo: no, DueDate: due,
		Amount: decimal.RequireFromString("1000"), Status: models.PaymentStatusPending,
	}
}

func newJob(p Payments, mailer Mailer) (*Job, *metrics.Metrics) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	j := NewJob(p, mailer, m, log, 7, "office@example.com")
	j.now = func() time.Time { return time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC) }
	return j, m
}

func TestJob_Run(t *testing.T) {
	payments := &fakePayments{
		late:     []models.Installment{installment(1, 2, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))},
		upcoming: []models.Installment{installment(2, 3, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))},
		created:  map[notificationKey]string{},
	}
	mailer := &fakeMailer{}
	job, m := newJob(payments, mailer)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), payments.lateAsOf)
	assert.Equal(t, 7, payments.window)
	assert.Contains(t, payments.created[notificationKey{1, models.NotificationLate}], "5 days late")
	assert.Contains(t, payments.created[notificationKey{2, models.NotificationUpcoming}], "due on 2024-04-20")

	require.Len(t, mailer.digests, 1)
	assert.Equal(t, "office@example.com", mailer.to)
	assert.Equal(t, 5, mailer.digests[0][0].DaysLate)
	assert.Equal(t, 0, mailer.digests[0][1].DaysLate)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersGenerated.WithLabelValues("late")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersGenerated.WithLabelValues("upcoming")))

	// second run finds nothing new
	n, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, mailer.digests, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersGenerated.WithLabelValues("late")))
}

func TestJob_RunMailFailureKeepsNotifications(t *testing.T) {
	payments := &fakePayments{
		late:    []models.Installment{installment(1, 2, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))},
		created: map[notificationKey]string{},
	}
	job, _ := newJob(payments, &fakeMailer{err: errors.New("smtp down")})

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, payments.created, 1)
}

func TestJob_RunWithoutMailer(t *testing.T) {
	payments := &fakePayments{
		upcoming: []models.Installment{installment(2, 3, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))},
		created:  map[notificationKey]string{},
	}
	job, _ := newJob(payments, nil)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestJob_RunListError(t *testing.T) {
	payments := &fakePayments{listErr: errors.New("db gone"), created: map[notificationKey]string{}}
	job, _ := newJob(payments, nil)

	_, err := job.Run(context.Background())
	assert.ErrorContains(t, err, "db gone")
}

func TestJob_Schedule(t *testing.T) {
	job, _ := newJob(&fakePayments{created: map[notificationKey]string{}}, nil)

	c, err := job.Schedule("0 8 * * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = job.Schedule("whenever")
	assert.Error(t, err)
}
