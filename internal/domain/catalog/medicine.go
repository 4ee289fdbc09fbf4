package catalog

import (
	"strings"

	"github.com/hms/pharmacy/internal/domain/shared"
)

// Medicine is the catalog entry for a drug product. Identity fields
// (name, strength, dosage form) are fixed once a batch references the
// medicine; descriptive fields stay editable.
type Medicine struct {
	shared.BaseAggregateRoot
	Name                 string `gorm:"type:varchar(255);not null;index:idx_medicines_identity,unique,priority:1"`
	GenericName          string `gorm:"type:varchar(255);not null"`
	BrandName            string `gorm:"type:varchar(255)"`
	Manufacturer         string `gorm:"type:varchar(255);not null"`
	DosageForm           string `gorm:"type:varchar(100);not null;index:idx_medicines_identity,unique,priority:3"`
	Strength             string `gorm:"type:varchar(100);not null;index:idx_medicines_identity,unique,priority:2"`
	Description          string `gorm:"type:text"`
	PrescriptionRequired bool   `gorm:"not null;default:false"`
	Active               bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Medicine) TableName() string {
	return "medicines"
}

// NewMedicine creates a new catalog entry
func NewMedicine(name, genericName, brandName, manufacturer, dosageForm, strength, description string, prescriptionRequired bool) (*Medicine, error) {
	name = strings.TrimSpace(name)
	genericName = strings.TrimSpace(genericName)
	manufacturer = strings.TrimSpace(manufacturer)
	dosageForm = strings.TrimSpace(dosageForm)
	strength = strings.TrimSpace(strength)

	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "medicine name is required")
	}
	if genericName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "generic name is required")
	}
	if manufacturer == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "manufacturer is required")
	}
	if dosageForm == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "dosage form is required")
	}
	if strength == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "strength is required")
	}

	return &Medicine{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Name:                 name,
		GenericName:          genericName,
		BrandName:            strings.TrimSpace(brandName),
		Manufacturer:         manufacturer,
		DosageForm:           dosageForm,
		Strength:             strength,
		Description:          description,
		PrescriptionRequired: prescriptionRequired,
		Active:               true,
	}, nil
}

// UpdateDescriptive updates the fields that remain editable after batches
// reference the medicine. Identity fields are intentionally not touched here.
func (m *Medicine) UpdateDescriptive(brandName, manufacturer, description string, prescriptionRequired bool) error {
	manufacturer = strings.TrimSpace(manufacturer)
	if manufacturer == "" {
		return shared.NewDomainError("INVALID_INPUT", "manufacturer is required")
	}
	m.BrandName = strings.TrimSpace(brandName)
	m.Manufacturer = manufacturer
	m.Description = description
	m.PrescriptionRequired = prescriptionRequired
	return nil
}

// Deactivate hides the medicine from new stock receipts and sales.
// Existing batches keep referencing it; catalog rows are never hard-deleted.
func (m *Medicine) Deactivate() error {
	if !m.Active {
		return shared.NewDomainError("CONFLICT", "medicine is already inactive")
	}
	m.Active = false
	return nil
}

// Activate restores a previously deactivated medicine
func (m *Medicine) Activate() error {
	if m.Active {
		return shared.NewDomainError("CONFLICT", "medicine is already active")
	}
	m.Active = true
	return nil
}
