package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBatchRepository implements inventory.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Save persists a batch. Updates use optimistic locking against the
// version the batch was loaded with, so two transactions consuming the
// same batch cannot both win.
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version).
		Updates(map[string]interface{}{
			"quantity":   batch.Quantity,
			"status":     batch.Status,
			"location":   batch.Location,
			"version":    batch.Version + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		batch.IncrementVersion()
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Batch{}).
		Where("id = ?", batch.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	// Two receipts racing the same (medicine, batch number) pair land
	// on the unique index; the loser reads as an existing batch.
	return translateUniqueViolation(r.db.WithContext(ctx).Create(batch).Error, shared.ErrAlreadyExists)
}

// FindByID finds a batch by ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByMedicineAndNumber finds a batch by its medicine-scoped number
func (r *GormBatchRepository) FindByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*inventory.Batch, error) {
	var batch inventory.Batch
	err := r.db.WithContext(ctx).
		First(&batch, "medicine_id = ? AND batch_number = ?", medicineID, batchNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindDispensable returns the batches of a medicine that can satisfy a
// consumption right now, ordered first-expiry-first-out.
func (r *GormBatchRepository) FindDispensable(ctx context.Context, medicineID uuid.UUID, now time.Time) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND status = ? AND quantity > 0 AND expiry_date > ?",
			medicineID, inventory.BatchStatusAvailable, now).
		Order("expiry_date ASC, received_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiring returns available batches with remaining stock whose
// expiry date falls inside the horizon.
func (r *GormBatchRepository) FindExpiring(ctx context.Context, now time.Time, days int) ([]*inventory.Batch, error) {
	horizon := now.AddDate(0, 0, days)
	var batches []*inventory.Batch
	err := r.db.WithContext(ctx).
		Where("status = ? AND quantity > 0 AND expiry_date > ? AND expiry_date <= ?",
			inventory.BatchStatusAvailable, now, horizon).
		Order("expiry_date ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiredActive returns batches past their expiry date that have
// not yet been moved to a terminal status.
func (r *GormBatchRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]*inventory.Batch, error) {
	var batches []*inventory.Batch
	err := r.db.WithContext(ctx).
		Where("expiry_date <= ? AND status NOT IN ?", now, []inventory.BatchStatus{
			inventory.BatchStatusExpired, inventory.BatchStatusDamaged, inventory.BatchStatusRecalled,
		}).
		Order("expiry_date ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// List returns batches matching the filter with pagination
func (r *GormBatchRepository) List(ctx context.Context, filter inventory.BatchFilter, page shared.Page) ([]*inventory.Batch, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&inventory.Batch{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, BatchSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var batches []*inventory.Batch
	err := query.
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter inventory.BatchFilter) *gorm.DB {
	if filter.MedicineID != nil {
		query = query.Where("medicine_id = ?", *filter.MedicineID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BatchNumber != "" {
		query = query.Where("batch_number = ?", filter.BatchNumber)
	}
	if filter.ExpiryBefore != nil {
		query = query.Where("expiry_date <= ?", *filter.ExpiryBefore)
	}
	if filter.ExpiryAfter != nil {
		query = query.Where("expiry_date > ?", *filter.ExpiryAfter)
	}
	return query
}

var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
