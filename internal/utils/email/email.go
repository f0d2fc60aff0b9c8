package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/config"
)

// Reminder is one line of a reminder digest
type Reminder struct {
	InstallmentID int64
	PlanID        int64
	InstallmentNo int
	DueDate       time.Time
	Amount        decimal.Decimal
	DaysLate      int // 0 for upcoming installments
}

type texts struct {
	subject  string
	greeting string
	late     string // installment no, plan id, due date, amount, days late
	upcoming string // installment no, plan id, due date, amount
	closing  string
}

var languages = map[config.Language]texts{
	config.LanguageTR: {
		subject:  "Ödeme Hatırlatmaları (%d)",
		greeting: "Merhaba,\n\nAşağıdaki taksitler için işlem gerekiyor:\n\n",
		late:     "- GECİKMİŞ: Plan %[2]d, %[1]d. taksit, vade %[3]s, tutar %[4]s (%[5]d gün gecikme)\n",
		upcoming: "- YAKLAŞAN: Plan %[2]d, %[1]d. taksit, vade %[3]s, tutar %[4]s\n",
		closing:  "\nİyi çalışmalar,\nİnşaat Muhasebe",
	},
	config.LanguageEN: {
		subject:  "Payment Reminders (%d)",
		greeting: "Hello,\n\nThe following installments need attention:\n\n",
		late:     "- LATE: plan %[2]d, installment %[1]d, due %[3]s, amount %[4]s (%[5]d days late)\n",
		upcoming: "- UPCOMING: plan %[2]d, installment %[1]d, due %[3]s, amount %[4]s\n",
		closing:  "\nBest regards,\nConstruction Accounting",
	},
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}

// BuildDigest formats the reminders as a single email in the configured language
func (s *Sender) BuildDigest(to string, reminders []Reminder) *email.Email {
	t, ok := languages[s.cfg.Language]
	if !ok {
		t = languages[config.LanguageEN]
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf(t.subject, len(reminders))

	var body strings.Builder
	body.WriteString(t.greeting)
	for _, r := range reminders {
		due := r.DueDate.Format(time.DateOnly)
		if r.DaysLate > 0 {
			fmt.Fprintf(&body, t.late, r.InstallmentNo, r.PlanID, due, r.Amount.StringFixed(2), r.DaysLate)
		} else {
			fmt.Fprintf(&body, t.upcoming, r.InstallmentNo, r.PlanID, due, r.Amount.StringFixed(2))
		}
	}
	body.WriteString(t.closing)
	e.Text = []byte(body.String())
	return e
}

// SendDigest sends one email listing every reminder
func (s *Sender) SendDigest(to string, reminders []Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	e := s.BuildDigest(to, reminders)
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
