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

// PropertyStore persists properties and deeds
type PropertyStore interface {
	CreateProperty(ctx context.Context, p *models.Property) error
	UpdateProperty(ctx context.Context, p *models.Property) error
	DeleteProperty(ctx context.Context, id int64) error
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	GetPropertyByNo(ctx context.Context, propertyNo string) (*models.Property, error)
	ListProperties(ctx context.Context, status models.PropertyStatus) ([]models.Property, error)
	CreateDeed(ctx context.Context, d *models.Deed) error
	ListDeeds(ctx context.Context, propertyID int64, activeOnly bool) ([]models.Deed, error)
}

// FieldEncrypter protects sensitive columns at rest
type FieldEncrypter interface {
	Encrypt(s string) (string, error)
	Decrypt(s string) (string, error)
}

// PropertyService manages real estate and title deeds
type PropertyService struct {
	store  PropertyStore
	cipher FieldEncrypter
	log    *logrus.Logger
}

// NewPropertyService initializes a new property service
func NewPropertyService(store PropertyStore, cipher FieldEncrypter, log *logrus.Logger) *PropertyService {
	return &PropertyService{store: store, cipher: cipher, log: log}
}

type PropertyRequest struct {
	PropertyNo       string
	Title            string
	Type             models.PropertyType
	Status           models.PropertyStatus
	Address          string
	City             string
	District         string
	PostalCode       string
	Area             *decimal.Decimal
	ConstructionYear *int
	Features         map[string]string
	PurchasePrice    *decimal.Decimal
	CurrentValue     *decimal.Decimal
	MonthlyRent      *decimal.Decimal
}

// UpdatePropertyRequest lists the editable property fields. Nil fields are left unchanged.
type UpdatePropertyRequest struct {
	Title            *string
	Type             *models.PropertyType
	Status           *models.PropertyStatus
	Address          *string
	City             *string
	District         *string
	PostalCode       *string
	Area             *decimal.Decimal
	ConstructionYear *int
	Features         map[string]string
	PurchasePrice    *decimal.Decimal
	CurrentValue     *decimal.Decimal
	MonthlyRent      *decimal.Decimal
}

type DeedRequest struct {
	DeedNo           string
	RegistrationDate time.Time
	OwnershipType    models.OwnershipType
	OwnerName        string
	OwnerIDNumber    string
	ShareRatio       *decimal.Decimal // defaults to 1
	PurchasePrice    *decimal.Decimal
	Notes            string
	IsActive         *bool // defaults to true
}

func validateProperty(p *models.Property) error {
	switch {
	case p.PropertyNo == "":
		return fmt.Errorf("property number is required: %w", models.ErrInvalidInput)
	case p.Title == "":
		return fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	case p.Address == "" || p.City == "":
		return fmt.Errorf("address and city are required: %w", models.ErrInvalidInput)
	case !p.Type.Valid():
		return fmt.Errorf("unknown property type %q: %w", p.Type, models.ErrInvalidInput)
	case !p.Status.Valid():
		return fmt.Errorf("unknown property status %q: %w", p.Status, models.ErrInvalidInput)
	}
	for name, v := range map[string]*decimal.Decimal{
		"area":           p.Area,
		"purchase price": p.PurchasePrice,
		"current value":  p.CurrentValue,
		"monthly rent":   p.MonthlyRent,
	} {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("%s must not be negative: %w", name, models.ErrInvalidInput)
		}
	}
	return nil
}

func (s *PropertyService) CreateProperty(ctx context.Context, req PropertyRequest) (*models.Property, error) {
	p := &models.Property{
		PropertyNo:       strings.TrimSpace(req.PropertyNo),
		Title:            strings.TrimSpace(req.Title),
		Type:             req.Type,
		Status:           req.Status,
		Address:          req.Address,
		City:             req.City,
		District:         req.District,
		PostalCode:       req.PostalCode,
		Area:             req.Area,
		ConstructionYear: req.ConstructionYear,
		Features:         req.Features,
		PurchasePrice:    req.PurchasePrice,
		CurrentValue:     req.CurrentValue,
		MonthlyRent:      req.MonthlyRent,
	}
	if p.Status == "" {
		p.Status = models.PropertyAvailable
	}
	if err := validateProperty(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProperty(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"property_id": p.ID, "property_no": p.PropertyNo}).Info("Property created")
	return p, nil
}

func (s *PropertyService) UpdateProperty(ctx context.Context, id int64, req UpdatePropertyRequest) (*models.Property, error) {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.District != nil {
		p.District = *req.District
	}
	if req.PostalCode != nil {
		p.PostalCode = *req.PostalCode
	}
	if req.Area != nil {
		p.Area = req.Area
	}
	if req.ConstructionYear != nil {
		p.ConstructionYear = req.ConstructionYear
	}
	if req.Features != nil {
		p.Features = req.Features
	}
	if req.PurchasePrice != nil {
		p.PurchasePrice = req.PurchasePrice
	}
	if req.CurrentValue != nil {
		p.CurrentValue = req.CurrentValue
	}
	if req.MonthlyRent != nil {
		p.MonthlyRent = req.MonthlyRent
	}
	if err := validateProperty(p); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithField("property_id", id).Info("Property updated")
	return p, nil
}

func (s *PropertyService) DeleteProperty(ctx context.Context, id int64) error {
	if err := s.store.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.log.WithField("property_id", id).Info("Property deleted")
	return nil
}

func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	return s.store.GetProperty(ctx, id)
}

func (s *PropertyService) GetPropertyByNo(ctx context.Context, propertyNo string) (*models.Property, error) {
	return s.store.GetPropertyByNo(ctx, strings.TrimSpace(propertyNo))
}

func (s *PropertyService) ListProperties(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown property status %q: %w", status, models.ErrInvalidInput)
	}
	return s.store.ListProperties(ctx, status)
}

// CreateDeed registers a deed. The owner's ID number is stored encrypted and
// an active deed replaces the property's current active deed.
func (s *PropertyService) CreateDeed(ctx context.Context, propertyID int64, req DeedRequest) (*models.Deed, error) {
	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	d := &models.Deed{
		PropertyID:       propertyID,
		DeedNo:           strings.TrimSpace(req.DeedNo),
		RegistrationDate: models.DateOnly(req.RegistrationDate),
		OwnershipType:    req.OwnershipType,
		OwnerName:        strings.TrimSpace(req.OwnerName),
		ShareRatio:       decimal.NewFromInt(1),
		PurchasePrice:    req.PurchasePrice,
		Notes:            req.Notes,
		IsActive:         true,
	}
	if req.ShareRatio != nil {
		d.ShareRatio = *req.ShareRatio
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	switch {
	case d.DeedNo == "":
		return nil, fmt.Errorf("deed number is required: %w", models.ErrInvalidInput)
	case d.OwnerName == "":
		return nil, fmt.Errorf("owner name is required: %w", models.ErrInvalidInput)
	case req.RegistrationDate.IsZero():
		return nil, fmt.Errorf("registration date is required: %w", models.ErrInvalidInput)
	case !d.OwnershipType.Valid():
		return nil, fmt.Errorf("unknown ownership type %q: %w", d.OwnershipType, models.ErrInvalidInput)
	case !d.ShareRatio.IsPositive() || d.ShareRatio.GreaterThan(decimal.NewFromInt(1)):
		return nil, fmt.Errorf("share ratio must be in (0, 1]: %w", models.ErrInvalidInput)
	}

	encrypted, err := s.cipher.Encrypt(strings.TrimSpace(req.OwnerIDNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt owner id number: %w", err)
	}
	d.OwnerIDNumber = encrypted

	if err := s.store.CreateDeed(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"property_id": propertyID,
		"deed_id":     d.ID,
		"active":      d.IsActive,
	}).Info("Deed registered")

	d.OwnerIDNumber = strings.TrimSpace(req.OwnerIDNumber)
	return d, nil
}

// ListDeeds retrieves the deeds of a property with owner ID numbers decrypted
func (s *PropertyService) ListDeeds(ctx context.Context, propertyID int64, activeOnly bool) ([]models.Deed, error) {
	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	deeds, err := s.store.ListDeeds(ctx, propertyID, activeOnly)
	if err != nil {
		return nil, err
	}
	for i := range deeds {
		plain, err := s.cipher.Decrypt(deeds[i].OwnerIDNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt owner id number of deed %d: %w", deeds[i].ID, err)
		}
		deeds[i].OwnerIDNumber = plain
	}
	return deeds, nil
}

// ValueHistory lists the purchase prices recorded on deeds in registration
// order, followed by the current valuation when one is set
func (s *PropertyService) ValueHistory(ctx context.Context, propertyID int64) ([]models.ValuePoint, error) {
	p, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	deeds, err := s.store.ListDeeds(ctx, propertyID, false)
	if err != nil {
		return nil, err
	}

	var history []models.ValuePoint
	// deeds come newest first
	for i := len(deeds) - 1; i >= 0; i-- {
		d := deeds[i]
		if d.PurchasePrice == nil || d.PurchasePrice.IsZero() {
			continue
		}
		history = append(history, models.ValuePoint{
			Date:  d.RegistrationDate,
			Value: *d.PurchasePrice,
			Type:  "Purchase",
			Owner: d.OwnerName,
		})
	}
	if p.CurrentValue != nil && !p.CurrentValue.IsZero() {
		history = append(history, models.ValuePoint{
			Date:  models.DateOnly(p.UpdatedAt),
			Value: *p.CurrentValue,
			Type:  "Current Valuation",
		})
	}
	return history, nil
}
