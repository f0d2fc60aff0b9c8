package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/repository"
)

// ChequeStore persists cheques and their audit log
type ChequeStore interface {
	CreateCheque(ctx context.Context, c *models.Cheque, entry *models.ChequeTransaction) error
	UpdateCheque(ctx context.Context, c *models.Cheque, entry *models.ChequeTransaction) error
	AddChequeTransaction(ctx context.Context, entry *models.ChequeTransaction) error
	GetCheque(ctx context.Context, id int64) (*models.Cheque, error)
	ListCheques(ctx context.Context, f repository.ChequeFilter) ([]models.Cheque, error)
	ListPendingChequesDueBy(ctx context.Context, by time.Time) ([]models.Cheque, error)
	ListChequeTransactions(ctx context.Context, chequeID int64, offset, limit int) ([]models.ChequeTransaction, error)
}

// ChequeService tracks cheques and bills. Every change is written to the
// cheque's audit log in the same transaction.
type ChequeService struct {
	store ChequeStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewChequeService initializes a new cheque service
func NewChequeService(store ChequeStore, log *logrus.Logger) *ChequeService {
	return &ChequeService{store: store, log: log, now: time.Now}
}

// WithClock replaces the time source used for issue dates and due windows.
func (s *ChequeService) WithClock(now func() time.Time) *ChequeService {
	s.now = now
	return s
}

type CreateChequeRequest struct {
	ChequeNo   string
	Type       models.ChequeType
	Direction  models.ChequeDirection
	Amount     decimal.Decimal
	DueDate    time.Time
	IssueDate  *time.Time // defaults to today
	BankName   string
	BankBranch string
	DrawerName string
	CustomerID *int64
	Notes      string
}

// UpdateChequeRequest lists the editable cheque details. Nil fields are left unchanged.
type UpdateChequeRequest struct {
	ChequeNo   *string
	Amount     *decimal.Decimal
	DueDate    *time.Time
	BankName   *string
	BankBranch *string
	DrawerName *string
	Notes      *string
}

type ListChequesRequest struct {
	Status    models.ChequeStatus
	Direction models.ChequeDirection
	Offset    int
	Limit     int
}

func statusPtr(s models.ChequeStatus) *models.ChequeStatus {
	return &s
}

// CreateCheque registers a pending cheque
func (s *ChequeService) CreateCheque(ctx context.Context, req CreateChequeRequest) (*models.Cheque, error) {
	c := &models.Cheque{
		ChequeNo:   strings.TrimSpace(req.ChequeNo),
		Type:       req.Type,
		Direction:  req.Direction,
		Amount:     req.Amount.Round(2),
		DueDate:    models.DateOnly(req.DueDate),
		IssueDate:  models.DateOnly(s.now()),
		BankName:   req.BankName,
		BankBranch: req.BankBranch,
		DrawerName: req.DrawerName,
		Status:     models.ChequeStatusPending,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
	}
	if req.IssueDate != nil {
		c.IssueDate = models.DateOnly(*req.IssueDate)
	}
	if c.Type != models.ChequeTypeCheque && c.Type != models.ChequeTypeBill {
		return nil, fmt.Errorf("unknown cheque type %q: %w", c.Type, models.ErrInvalidInput)
	}
	if c.Direction != models.ChequeReceived && c.Direction != models.ChequeGiven {
		return nil, fmt.Errorf("unknown cheque direction %q: %w", c.Direction, models.ErrInvalidInput)
	}
	if err := validateChequeDetails(c); err != nil {
		return nil, err
	}

	entry := &models.ChequeTransaction{
		TransactionType: models.ChequeStatusChange,
		NewStatus:       statusPtr(models.ChequeStatusPending),
		Description:     "Cheque registered",
	}
	if err := s.store.CreateCheque(ctx, c, entry); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"cheque_id": c.ID,
		"cheque_no": c.ChequeNo,
		"direction": c.Direction,
	}).Info("Cheque registered")
	return c, nil
}

func validateChequeDetails(c *models.Cheque) error {
	if c.ChequeNo == "" {
		return fmt.Errorf("cheque number is required: %w", models.ErrInvalidInput)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %w", models.ErrInvalidInput)
	}
	if c.DueDate.IsZero() {
		return fmt.Errorf("due date is required: %w", models.ErrInvalidInput)
	}
	return nil
}

// UpdateCheque edits the cheque details and logs a detail_updated entry
func (s *ChequeService) UpdateCheque(ctx context.Context, id int64, req UpdateChequeRequest) (*models.Cheque, error) {
	c, err := s.store.GetCheque(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ChequeNo != nil {
		c.ChequeNo = strings.TrimSpace(*req.ChequeNo)
	}
	if req.Amount != nil {
		c.Amount = req.Amount.Round(2)
	}
	if req.DueDate != nil {
		c.DueDate = models.DateOnly(*req.DueDate)
	}
	if req.BankName != nil {
		c.BankName = *req.BankName
	}
	if req.BankBranch != nil {
		c.BankBranch = *req.BankBranch
	}
	if req.DrawerName != nil {
		c.DrawerName = *req.DrawerName
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	if err := validateChequeDetails(c); err != nil {
		return nil, err
	}

	entry := &models.ChequeTransaction{
		TransactionType: models.ChequeDetailUpdated,
		Description:     "Cheque details updated",
	}
	if err := s.store.UpdateCheque(ctx, c, entry); err != nil {
		return nil, err
	}
	s.log.WithField("cheque_id", id).Info("Cheque updated")
	return c, nil
}

// UpdateStatus moves a pending cheque to a new status. Cashed, bounced and
// cancelled cheques are final.
func (s *ChequeService) UpdateStatus(ctx context.Context, id int64, status models.ChequeStatus, description string) (*models.Cheque, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown cheque status %q: %w", status, models.ErrInvalidInput)
	}
	c, err := s.store.GetCheque(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.ChequeStatusPending || status == models.ChequeStatusPending {
		return nil, fmt.Errorf("cheque %d cannot move from %s to %s: %w", id, c.Status, status, models.ErrInvalidTransition)
	}

	old := c.Status
	c.Status = status
	if description == "" {
		description = fmt.Sprintf("Status changed: %s -> %s", old, status)
	}
	entry := &models.ChequeTransaction{
		TransactionType: models.ChequeStatusChange,
		OldStatus:       statusPtr(old),
		NewStatus:       statusPtr(status),
		Description:     description,
	}
	if err := s.store.UpdateCheque(ctx, c, entry); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"cheque_id":  id,
		"old_status": old,
		"new_status": status,
	}).Info("Cheque status changed")
	return c, nil
}

// AddNote appends a note to the cheque's audit log
func (s *ChequeService) AddNote(ctx context.Context, id int64, note string) (*models.ChequeTransaction, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("note is empty: %w", models.ErrInvalidInput)
	}
	if _, err := s.store.GetCheque(ctx, id); err != nil {
		return nil, err
	}
	entry := &models.ChequeTransaction{
		ChequeID:        id,
		TransactionType: models.ChequeNoteAdded,
		Description:     note,
	}
	if err := s.store.AddChequeTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ChequeService) GetCheque(ctx context.Context, id int64) (*models.Cheque, error) {
	return s.store.GetCheque(ctx, id)
}

// ListCheques retrieves cheques ordered by due date
func (s *ChequeService) ListCheques(ctx context.Context, req ListChequesRequest) ([]models.Cheque, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, fmt.Errorf("unknown cheque status %q: %w", req.Status, models.ErrInvalidInput)
	}
	offset, limit := Page(req.Offset, req.Limit)
	return s.store.ListCheques(ctx, repository.ChequeFilter{
		Status:    req.Status,
		Direction: req.Direction,
		Offset:    offset,
		Limit:     limit,
	})
}

// ListDue retrieves pending cheques due within windowDays from today, overdue ones included
func (s *ChequeService) ListDue(ctx context.Context, windowDays int) ([]models.Cheque, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("window must not be negative, got %d: %w", windowDays, models.ErrInvalidInput)
	}
	return s.store.ListPendingChequesDueBy(ctx, models.DateOnly(s.now()).AddDate(0, 0, windowDays))
}

// ListTransactions retrieves the audit log of a cheque, newest first
func (s *ChequeService) ListTransactions(ctx context.Context, id int64, offset, limit int) ([]models.ChequeTransaction, error) {
	if _, err := s.store.GetCheque(ctx, id); err != nil {
		return nil, err
	}
	offset, limit = Page(offset, limit)
	return s.store.ListChequeTransactions(ctx, id, offset, limit)
}
