package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/models"
)

// DefaultPageSize is used when a list request does not specify a limit.
const DefaultPageSize = 100

// CustomerStore persists customers and their current account
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, offset, limit int) ([]models.Customer, error)
	AddCustomerTransaction(ctx context.Context, t *models.CustomerTransaction) error
	ListCustomerTransactions(ctx context.Context, customerID int64, offset, limit int) ([]models.CustomerTransaction, error)
	GetCustomerBalance(ctx context.Context, customerID int64) (*models.CustomerBalance, error)
}

// CustomerService manages customers, suppliers and their transactions
type CustomerService struct {
	store CustomerStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewCustomerService initializes a new customer service
func NewCustomerService(store CustomerStore, log *logrus.Logger) *CustomerService {
	return &CustomerService{store: store, log: log, now: time.Now}
}

type CreateCustomerRequest struct {
	Name      string
	TaxNumber string
	Phone     string
	Address   string
	Type      models.CustomerType
}

// UpdateCustomerRequest lists the editable customer fields. Nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name      *string
	TaxNumber *string
	Phone     *string
	Address   *string
	Type      *models.CustomerType
}

type AddTransactionRequest struct {
	Date        *time.Time // defaults to now
	Type        models.TransactionType
	Description string
	Amount      decimal.Decimal
}

// Page normalizes pagination parameters.
func Page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return offset, limit
}

// CreateCustomer creates a customer with an empty balance
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	c := &models.Customer{
		Name:      strings.TrimSpace(req.Name),
		TaxNumber: strings.TrimSpace(req.TaxNumber),
		Phone:     req.Phone,
		Address:   req.Address,
		Type:      req.Type,
	}
	if c.Type == "" {
		c.Type = models.CustomerTypeCustomer
	}
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithField("customer_id", c.ID).Infof("Customer created: %s", c.Name)
	return c, nil
}

func validateCustomer(c *models.Customer) error {
	if c.Name == "" {
		return fmt.Errorf("name is required: %w", models.ErrInvalidInput)
	}
	if c.TaxNumber == "" {
		return fmt.Errorf("tax number is required: %w", models.ErrInvalidInput)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("unknown customer type %q: %w", c.Type, models.ErrInvalidInput)
	}
	return nil
}

// UpdateCustomer applies the set fields of req
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.TaxNumber != nil {
		c.TaxNumber = strings.TrimSpace(*req.TaxNumber)
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.Type != nil {
		c.Type = *req.Type
	}
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithField("customer_id", id).Info("Customer updated")
	return c, nil
}

// DeleteCustomer removes a customer together with its balance and transactions
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.log.WithField("customer_id", id).Info("Customer deleted")
	return nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context, offset, limit int) ([]models.Customer, error) {
	offset, limit = Page(offset, limit)
	return s.store.ListCustomers(ctx, offset, limit)
}

// AddTransaction books a debit or credit and updates the customer's balance
func (s *CustomerService) AddTransaction(ctx context.Context, customerID int64, req AddTransactionRequest) (*models.CustomerTransaction, error) {
	if req.Type != models.TransactionDebit && req.Type != models.TransactionCredit {
		return nil, fmt.Errorf("unknown transaction type %q: %w", req.Type, models.ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrInvalidInput)
	}
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	t := &models.CustomerTransaction{
		CustomerID:  customerID,
		Date:        s.now(),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount.Round(2),
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	if err := s.store.AddCustomerTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"customer_id": customerID,
		"type":        t.Type,
		"amount":      t.Amount.StringFixed(2),
	}).Info("Customer transaction booked")
	return t, nil
}

func (s *CustomerService) ListTransactions(ctx context.Context, customerID int64, offset, limit int) ([]models.CustomerTransaction, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	offset, limit = Page(offset, limit)
	return s.store.ListCustomerTransactions(ctx, customerID, offset, limit)
}

func (s *CustomerService) GetBalance(ctx context.Context, customerID int64) (*models.CustomerBalance, error) {
	return s.store.GetCustomerBalance(ctx, customerID)
}
