package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/billing"
	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements billing.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Save persists a sale together with its line items and payments.
// Updates use optimistic locking against the version the sale was
// loaded with, so two transactions settling the same bill cannot both
// win. A duplicate bill number reads as a concurrency conflict; the
// retrying caller allocates a fresh number.
func (r *GormSaleRepository) Save(ctx context.Context, sale *billing.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&billing.Sale{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version).
		Updates(map[string]interface{}{
			"bill_number":    sale.BillNumber,
			"subtotal":       sale.Subtotal,
			"discount":       sale.Discount,
			"tax":            sale.Tax,
			"total_amount":   sale.TotalAmount,
			"paid_amount":    sale.PaidAmount,
			"payment_status": sale.PaymentStatus,
			"notes":          sale.Notes,
			"version":        sale.Version + 1,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return translateUniqueViolation(result.Error, shared.ErrConcurrencyConflict)
	}
	if result.RowsAffected > 0 {
		sale.IncrementVersion()
		return r.saveChildren(ctx, sale)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&billing.Sale{}).
		Where("id = ?", sale.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return translateUniqueViolation(err, shared.ErrConcurrencyConflict)
	}
	return nil
}

// saveChildren inserts line items and payments added since the sale was
// loaded. Both collections are append-only; rows already stored are
// left untouched.
func (r *GormSaleRepository) saveChildren(ctx context.Context, sale *billing.Sale) error {
	insertMissing := clause.OnConflict{DoNothing: true}
	if len(sale.Items) > 0 {
		if err := r.db.WithContext(ctx).Clauses(insertMissing).Create(&sale.Items).Error; err != nil {
			return err
		}
	}
	if len(sale.Payments) > 0 {
		if err := r.db.WithContext(ctx).Clauses(insertMissing).Create(&sale.Payments).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a sale by ID with its items and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Sale, error) {
	var sale billing.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByBillNumber finds a sale by its printed bill number
func (r *GormSaleRepository) FindByBillNumber(ctx context.Context, billNumber string) (*billing.Sale, error) {
	var sale billing.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&sale, "bill_number = ?", billNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// NextBillNumber allocates the next bill number for the given day in
// the form INV-YYYYMMDD-NNNN. Callers run this inside the sale's
// transaction; the unique index on bill_number backstops any race.
func (r *GormSaleRepository) NextBillNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", date.Format("20060102"))

	var lastNumbers []string
	err := r.db.WithContext(ctx).
		Model(&billing.Sale{}).
		Where("bill_number LIKE ?", prefix+"%").
		Order("bill_number DESC").
		Limit(1).
		Pluck("bill_number", &lastNumbers).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if len(lastNumbers) > 0 {
		if _, err := fmt.Sscanf(lastNumbers[0], prefix+"%04d", &seq); err != nil {
			return "", fmt.Errorf("malformed bill number %q: %w", lastNumbers[0], err)
		}
		seq++
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// List returns sales matching the filter with pagination
func (r *GormSaleRepository) List(ctx context.Context, filter billing.SaleFilter, page shared.Page) ([]*billing.Sale, int64, error) {
	page.Normalize()

	query := r.db.WithContext(ctx).Model(&billing.Sale{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, SaleSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var sales []*billing.Sale
	err := query.
		Preload("Items").
		Preload("Payments").
		Order(orderBy + " " + orderDir).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter billing.SaleFilter) *gorm.DB {
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.BillNumber != "" {
		query = query.Where("bill_number = ?", filter.BillNumber)
	}
	if filter.From != nil {
		query = query.Where("bill_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("bill_date <= ?", *filter.To)
	}
	return query
}

var _ billing.SaleRepository = (*GormSaleRepository)(nil)
