package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements inventory.StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// Save persists stock level changes with optimistic locking. Rows are
// created through GetOrCreate, so a miss here always means another
// transaction moved the stock first.
func (r *GormStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(item).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"current_stock":     item.CurrentStock,
			"min_stock_level":   item.MinStockLevel,
			"max_stock_level":   item.MaxStockLevel,
			"reorder_level":     item.ReorderLevel,
			"last_stock_update": item.LastStockUpdate,
			"version":           item.Version + 1,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	item.IncrementVersion()
	return nil
}

// FindByMedicineID finds the stock record for a medicine
func (r *GormStockItemRepository) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	err := r.db.WithContext(ctx).First(&item, "medicine_id = ?", medicineID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetOrCreate inserts the given stock record unless one already exists
// for the medicine, and returns the surviving row. ON CONFLICT keeps
// concurrent first receipts from racing each other.
func (r *GormStockItemRepository) GetOrCreate(ctx context.Context, item *inventory.StockItem) (*inventory.StockItem, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "medicine_id"}},
			DoNothing: true,
		}).
		Create(item)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return item, nil
	}
	return r.FindByMedicineID(ctx, item.MedicineID)
}

// List returns stock records matching the filter with pagination
func (r *GormStockItemRepository) List(ctx context.Context, filter inventory.StockItemFilter, page shared.Page) ([]*inventory.StockItem, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&inventory.StockItem{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, StockItemSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var items []*inventory.StockItem
	err := query.
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter inventory.StockItemFilter) *gorm.DB {
	if filter.MedicineID != nil {
		query = query.Where("medicine_id = ?", *filter.MedicineID)
	}
	if filter.BelowReorder {
		query = query.Where("current_stock > 0 AND current_stock <= reorder_level")
	}
	if filter.OutOfStock {
		query = query.Where("current_stock = 0")
	}
	return query
}

var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
