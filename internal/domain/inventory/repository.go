package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// BatchFilter holds the typed query criteria for batch listings
type BatchFilter struct {
	MedicineID   *uuid.UUID
	Status       *BatchStatus
	BatchNumber  string
	ExpiryBefore *time.Time
	ExpiryAfter  *time.Time
}

// TransactionFilter holds the typed query criteria for ledger listings
type TransactionFilter struct {
	MedicineID *uuid.UUID
	BatchID    *uuid.UUID
	Type       *TransactionType
	From       *time.Time
	To         *time.Time
}

// AlertFilter holds the typed query criteria for alert listings
type AlertFilter struct {
	Type       *AlertType
	Status     *AlertStatus
	MedicineID *uuid.UUID
}

// StockItemFilter holds the typed query criteria for stock listings
type StockItemFilter struct {
	MedicineID   *uuid.UUID
	BelowReorder bool
	OutOfStock   bool
}

// BatchRepository defines the persistence contract for stock batches.
// Save uses optimistic locking and returns CONCURRENCY_CONFLICT when the
// row moved underneath the caller.
type BatchRepository interface {
	Save(ctx context.Context, batch *Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*Batch, error)
	FindDispensable(ctx context.Context, medicineID uuid.UUID, now time.Time) ([]*Batch, error)
	FindExpiring(ctx context.Context, now time.Time, days int) ([]*Batch, error)
	FindExpiredActive(ctx context.Context, now time.Time) ([]*Batch, error)
	List(ctx context.Context, filter BatchFilter, page shared.Page) ([]*Batch, int64, error)
}

// StockItemRepository defines the persistence contract for the stock
// aggregate rows.
type StockItemRepository interface {
	Save(ctx context.Context, item *StockItem) error
	FindByMedicineID(ctx context.Context, medicineID uuid.UUID) (*StockItem, error)
	GetOrCreate(ctx context.Context, item *StockItem) (*StockItem, error)
	List(ctx context.Context, filter StockItemFilter, page shared.Page) ([]*StockItem, int64, error)
}

// TransactionRepository defines the persistence contract for the
// append-only stock ledger. Entries are never updated or deleted.
type TransactionRepository interface {
	Append(ctx context.Context, transaction *StockTransaction) error
	FindByMedicineID(ctx context.Context, medicineID uuid.UUID) ([]*StockTransaction, error)
	List(ctx context.Context, filter TransactionFilter, page shared.Page) ([]*StockTransaction, int64, error)
}

// AlertRepository defines the persistence contract for stock alerts
type AlertRepository interface {
	Save(ctx context.Context, alert *Alert) error
	FindByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	FindActiveByCondition(ctx context.Context, alertType AlertType, medicineID uuid.UUID, batchID *uuid.UUID) (*Alert, error)
	FindActiveByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Alert, error)
	List(ctx context.Context, filter AlertFilter, page shared.Page) ([]*Alert, int64, error)
}
