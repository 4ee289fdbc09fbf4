package dto

import (
	"time"

	"github.com/google/uuid"

	appcatalog "github.com/hms/pharmacy/internal/application/catalog"
	"github.com/hms/pharmacy/internal/domain/catalog"
)

// CreateMedicineRequest registers a new catalog entry
type CreateMedicineRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	GenericName          string `json:"generic_name" binding:"required,max=255"`
	BrandName            string `json:"brand_name" binding:"max=255"`
	Manufacturer         string `json:"manufacturer" binding:"required,max=255"`
	DosageForm           string `json:"dosage_form" binding:"required,max=100"`
	Strength             string `json:"strength" binding:"required,max=100"`
	Description          string `json:"description"`
	PrescriptionRequired bool   `json:"prescription_required"`
}

// ToApplication converts the request to the application layer input
func (r CreateMedicineRequest) ToApplication() appcatalog.CreateMedicineRequest {
	return appcatalog.CreateMedicineRequest{
		Name:                 r.Name,
		GenericName:          r.GenericName,
		BrandName:            r.BrandName,
		Manufacturer:         r.Manufacturer,
		DosageForm:           r.DosageForm,
		Strength:             r.Strength,
		Description:          r.Description,
		PrescriptionRequired: r.PrescriptionRequired,
	}
}

// UpdateMedicineRequest changes the descriptive fields of a catalog
// entry. Name, strength and dosage form are identity and cannot change.
type UpdateMedicineRequest struct {
	BrandName            string `json:"brand_name" binding:"max=255"`
	Manufacturer         string `json:"manufacturer" binding:"required,max=255"`
	Description          string `json:"description"`
	PrescriptionRequired bool   `json:"prescription_required"`
}

// ToApplication converts the request to the application layer input
func (r UpdateMedicineRequest) ToApplication() appcatalog.UpdateMedicineRequest {
	return appcatalog.UpdateMedicineRequest{
		BrandName:            r.BrandName,
		Manufacturer:         r.Manufacturer,
		Description:          r.Description,
		PrescriptionRequired: r.PrescriptionRequired,
	}
}

// ListMedicinesRequest holds catalog listing filters
type ListMedicinesRequest struct {
	ListRequest
	Search               string `form:"search"`
	Manufacturer         string `form:"manufacturer"`
	DosageForm           string `form:"dosage_form"`
	PrescriptionRequired *bool  `form:"prescription_required"`
	Active               *bool  `form:"active"`
}

// ToFilter converts the request to a domain filter
func (r ListMedicinesRequest) ToFilter() catalog.MedicineFilter {
	return catalog.MedicineFilter{
		Search:               r.Search,
		Manufacturer:         r.Manufacturer,
		DosageForm:           r.DosageForm,
		PrescriptionRequired: r.PrescriptionRequired,
		Active:               r.Active,
	}
}

// MedicineResponse is the API shape of a catalog entry
type MedicineResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	GenericName          string    `json:"generic_name"`
	BrandName            string    `json:"brand_name,omitempty"`
	Manufacturer         string    `json:"manufacturer"`
	DosageForm           string    `json:"dosage_form"`
	Strength             string    `json:"strength"`
	Description          string    `json:"description,omitempty"`
	PrescriptionRequired bool      `json:"prescription_required"`
	Active               bool      `json:"active"`
	Version              int       `json:"version"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// FromMedicine converts a catalog entry to its API shape
func FromMedicine(m *catalog.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		GenericName:          m.GenericName,
		BrandName:            m.BrandName,
		Manufacturer:         m.Manufacturer,
		DosageForm:           m.DosageForm,
		Strength:             m.Strength,
		Description:          m.Description,
		PrescriptionRequired: m.PrescriptionRequired,
		Active:               m.Active,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromMedicines converts a list of catalog entries
func FromMedicines(medicines []*catalog.Medicine) []MedicineResponse {
	out := make([]MedicineResponse, 0, len(medicines))
	for _, m := range medicines {
		out = append(out, FromMedicine(m))
	}
	return out
}
