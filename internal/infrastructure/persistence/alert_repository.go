package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAlertRepository implements inventory.AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// Save persists an alert. The partial unique index on ACTIVE alerts
// rejects a second ACTIVE row for the same condition key; the loser of
// that race reads as a concurrency conflict so the enclosing scope
// re-reads and finds the winner's row.
func (r *GormAlertRepository) Save(ctx context.Context, alert *inventory.Alert) error {
	return translateUniqueViolation(r.db.WithContext(ctx).Save(alert).Error, shared.ErrConcurrencyConflict)
}

// FindByID finds an alert by ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Alert, error) {
	var alert inventory.Alert
	err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindActiveByCondition finds the single ACTIVE alert for a condition
// key. Stock conditions carry no batch; expiry warnings are per batch.
func (r *GormAlertRepository) FindActiveByCondition(ctx context.Context, alertType inventory.AlertType, medicineID uuid.UUID, batchID *uuid.UUID) (*inventory.Alert, error) {
	query := r.db.WithContext(ctx).
		Where("type = ? AND medicine_id = ? AND status = ?", alertType, medicineID, inventory.AlertStatusActive)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}

	var alert inventory.Alert
	err := query.First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindActiveByMedicine returns all ACTIVE alerts for a medicine
func (r *GormAlertRepository) FindActiveByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*inventory.Alert, error) {
	var alerts []*inventory.Alert
	err := r.db.WithContext(ctx).
		Where("medicine_id = ? AND status = ?", medicineID, inventory.AlertStatusActive).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// List returns alerts matching the filter with pagination
func (r *GormAlertRepository) List(ctx context.Context, filter inventory.AlertFilter, page shared.Page) ([]*inventory.Alert, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&inventory.Alert{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, AlertSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var alerts []*inventory.Alert
	err := query.
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *GormAlertRepository) applyFilter(query *gorm.DB, filter inventory.AlertFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.MedicineID != nil {
		query = query.Where("medicine_id = ?", *filter.MedicineID)
	}
	return query
}

var _ inventory.AlertRepository = (*GormAlertRepository)(nil)
