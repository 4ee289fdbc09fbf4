package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMedicineRepository implements catalog.MedicineRepository using GORM
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewGormMedicineRepository creates a new GormMedicineRepository
func NewGormMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// Save persists a medicine
func (r *GormMedicineRepository) Save(ctx context.Context, medicine *catalog.Medicine) error {
	return r.db.WithContext(ctx).Save(medicine).Error
}

// FindByID finds a medicine by ID
func (r *GormMedicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	var medicine catalog.Medicine
	err := r.db.WithContext(ctx).First(&medicine, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &medicine, nil
}

// FindByIdentity finds a medicine by its immutable identity fields
func (r *GormMedicineRepository) FindByIdentity(ctx context.Context, name, strength, dosageForm string) (*catalog.Medicine, error) {
	var medicine catalog.Medicine
	err := r.db.WithContext(ctx).
		First(&medicine, "name = ? AND strength = ? AND dosage_form = ?", name, strength, dosageForm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &medicine, nil
}

// List returns medicines matching the filter with pagination
func (r *GormMedicineRepository) List(ctx context.Context, filter catalog.MedicineFilter, page shared.Page) ([]*catalog.Medicine, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&catalog.Medicine{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, MedicineSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var medicines []*catalog.Medicine
	err := query.
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&medicines).Error
	if err != nil {
		return nil, 0, err
	}
	return medicines, total, nil
}

func (r *GormMedicineRepository) applyFilter(query *gorm.DB, filter catalog.MedicineFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(generic_name) LIKE ? OR LOWER(brand_name) LIKE ?", pattern, pattern, pattern)
	}
	if filter.Manufacturer != "" {
		query = query.Where("manufacturer = ?", filter.Manufacturer)
	}
	if filter.DosageForm != "" {
		query = query.Where("dosage_form = ?", filter.DosageForm)
	}
	if filter.PrescriptionRequired != nil {
		query = query.Where("prescription_required = ?", *filter.PrescriptionRequired)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

var _ catalog.MedicineRepository = (*GormMedicineRepository)(nil)
