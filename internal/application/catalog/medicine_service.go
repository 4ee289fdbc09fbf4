package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// CreateMedicineRequest is the input for registering a catalog entry
type CreateMedicineRequest struct {
	Name                 string
	GenericName          string
	BrandName            string
	Manufacturer         string
	DosageForm           string
	Strength             string
	Description          string
	PrescriptionRequired bool
}

// UpdateMedicineRequest changes the descriptive fields of a catalog
// entry.
type UpdateMedicineRequest struct {
	BrandName            string
	Manufacturer         string
	Description          string
	PrescriptionRequired bool
}

// MedicineService manages the medicine catalog
type MedicineService struct {
	medicineRepo catalog.MedicineRepository
}

// NewMedicineService creates a new MedicineService
func NewMedicineService(medicineRepo catalog.MedicineRepository) *MedicineService {
	return &MedicineService{medicineRepo: medicineRepo}
}

// CreateMedicine registers a new catalog entry. The (name, strength,
// dosage form) combination must be unique.
func (s *MedicineService) CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*catalog.Medicine, error) {
	medicine, err := catalog.NewMedicine(req.Name, req.GenericName, req.BrandName,
		req.Manufacturer, req.DosageForm, req.Strength, req.Description, req.PrescriptionRequired)
	if err != nil {
		return nil, err
	}

	existing, err := s.medicineRepo.FindByIdentity(ctx, medicine.Name, medicine.Strength, medicine.DosageForm)
	if err != nil && !shared.IsCode(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("medicine %s %s (%s) is already registered", medicine.Name, medicine.Strength, medicine.DosageForm))
	}

	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// UpdateMedicine changes the descriptive fields of an entry
func (s *MedicineService) UpdateMedicine(ctx context.Context, id uuid.UUID, req UpdateMedicineRequest) (*catalog.Medicine, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := medicine.UpdateDescriptive(req.BrandName, req.Manufacturer, req.Description, req.PrescriptionRequired); err != nil {
		return nil, err
	}
	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// DeactivateMedicine hides the entry from new receipts and sales
func (s *MedicineService) DeactivateMedicine(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := medicine.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// ActivateMedicine restores a previously deactivated entry
func (s *MedicineService) ActivateMedicine(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	medicine, err := s.medicineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := medicine.Activate(); err != nil {
		return nil, err
	}
	if err := s.medicineRepo.Save(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// GetMedicine returns one catalog entry
func (s *MedicineService) GetMedicine(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	return s.medicineRepo.FindByID(ctx, id)
}

// ListMedicines lists catalog entries
func (s *MedicineService) ListMedicines(ctx context.Context, filter catalog.MedicineFilter, page shared.Page) ([]*catalog.Medicine, int64, error) {
	page.Normalize()
	return s.medicineRepo.List(ctx, filter, page)
}
