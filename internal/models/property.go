package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyType string

const (
	PropertyLand        PropertyType = "Land"
	PropertyResidential PropertyType = "Residential"
	PropertyCommercial  PropertyType = "Commercial"
	PropertyIndustrial  PropertyType = "Industrial"
	PropertyMixedUse    PropertyType = "Mixed Use"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyLand, PropertyResidential, PropertyCommercial, PropertyIndustrial, PropertyMixedUse:
		return true
	}
	return false
}

type PropertyStatus string

const (
	PropertyAvailable         PropertyStatus = "Available"
	PropertySold              PropertyStatus = "Sold"
	PropertyRented            PropertyStatus = "Rented"
	PropertyUnderConstruction PropertyStatus = "Under Construction"
	PropertyUnderMaintenance  PropertyStatus = "Under Maintenance"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertySold, PropertyRented, PropertyUnderConstruction, PropertyUnderMaintenance:
		return true
	}
	return false
}

type OwnershipType string

const (
	OwnershipFull        OwnershipType = "Full Ownership"
	OwnershipShared      OwnershipType = "Shared Ownership"
	OwnershipLeasehold   OwnershipType = "Leasehold"
	OwnershipCondominium OwnershipType = "Condominium"
)

func (t OwnershipType) Valid() bool {
	switch t {
	case OwnershipFull, OwnershipShared, OwnershipLeasehold, OwnershipCondominium:
		return true
	}
	return false
}

// Property represents a plot or building owned or managed by the business
type Property struct {
	ID               int64             `json:"id"`
	PropertyNo       string            `json:"property_no"`
	Title            string            `json:"title"`
	Type             PropertyType      `json:"type"`
	Status           PropertyStatus    `json:"status"`
	Address          string            `json:"address"`
	City             string            `json:"city"`
	District         string            `json:"district,omitempty"`
	PostalCode       string            `json:"postal_code,omitempty"`
	Area             *decimal.Decimal  `json:"area,omitempty"` // square meters
	ConstructionYear *int              `json:"construction_year,omitempty"`
	Features         map[string]string `json:"features,omitempty"`
	PurchasePrice    *decimal.Decimal  `json:"purchase_price,omitempty"`
	CurrentValue     *decimal.Decimal  `json:"current_value,omitempty"`
	MonthlyRent      *decimal.Decimal  `json:"monthly_rent,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Deed represents a title deed registered for a property
type Deed struct {
	ID               int64            `json:"id"`
	PropertyID       int64            `json:"property_id"`
	DeedNo           string           `json:"deed_no"`
	RegistrationDate time.Time        `json:"registration_date"`
	OwnershipType    OwnershipType    `json:"ownership_type"`
	OwnerName        string           `json:"owner_name"`
	OwnerIDNumber    string           `json:"owner_id_number,omitempty"` // encrypted at rest
	ShareRatio       decimal.Decimal  `json:"share_ratio"`
	PurchasePrice    *decimal.Decimal `json:"purchase_price,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ValuePoint is one entry of a property's value history
type ValuePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
	Type  string          `json:"type"`
	Owner string          `json:"owner,omitempty"`
}
