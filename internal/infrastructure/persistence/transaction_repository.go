package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionRepository implements inventory.TransactionRepository
// using GORM. The ledger is append-only; there is no update or delete.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Append writes a new ledger entry
func (r *GormTransactionRepository) Append(ctx context.Context, transaction *inventory.StockTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// FindByMedicineID returns the full ledger of a medicine in append order
func (r *GormTransactionRepository) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) ([]*inventory.StockTransaction, error) {
	var entries []*inventory.StockTransaction
	err := r.db.WithContext(ctx).
		Where("medicine_id = ?", medicineID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// List returns ledger entries matching the filter with pagination
func (r *GormTransactionRepository) List(ctx context.Context, filter inventory.TransactionFilter, page shared.Page) ([]*inventory.StockTransaction, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&inventory.StockTransaction{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, TransactionSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var entries []*inventory.StockTransaction
	err := query.
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter inventory.TransactionFilter) *gorm.DB {
	if filter.MedicineID != nil {
		query = query.Where("medicine_id = ?", *filter.MedicineID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}

var _ inventory.TransactionRepository = (*GormTransactionRepository)(nil)
