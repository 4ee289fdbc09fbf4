package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// MedicineFilter holds the typed query criteria for catalog listings
type MedicineFilter struct {
	Search               string
	Manufacturer         string
	DosageForm           string
	PrescriptionRequired *bool
	Active               *bool
}

// MedicineRepository defines the persistence contract for the catalog
type MedicineRepository interface {
	Save(ctx context.Context, medicine *Medicine) error
	FindByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	FindByIdentity(ctx context.Context, name, strength, dosageForm string) (*Medicine, error)
	List(ctx context.Context, filter MedicineFilter, page shared.Page) ([]*Medicine, int64, error)
}
