package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// In-memory repositories backing the service tests through a
// NoOpTransactionScope. Reads hand out copies so, like a real store,
// nothing changes until Save.

func cloneBatch(b *inventory.Batch) *inventory.Batch {
	c := *b
	return &c
}

func cloneStockItem(i *inventory.StockItem) *inventory.StockItem {
	c := *i
	c.ClearDomainEvents()
	return &c
}

func cloneAlert(a *inventory.Alert) *inventory.Alert {
	c := *a
	c.ClearDomainEvents()
	return &c
}

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]*inventory.Batch)}
}

func (r *memBatchRepo) Save(ctx context.Context, batch *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (r *memBatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.batches[id]; ok {
		return cloneBatch(b), nil
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepo) FindByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.MedicineID == medicineID && b.BatchNumber == batchNumber {
			return cloneBatch(b), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepo) FindDispensable(ctx context.Context, medicineID uuid.UUID, now time.Time) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.batches {
		if b.MedicineID == medicineID && b.IsDispensable(now) {
			out = append(out, cloneBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) FindExpiring(ctx context.Context, now time.Time, days int) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*inventory.Batch, 0, len(r.batches))
	for _, b := range r.batches {
		all = append(all, cloneBatch(b))
	}
	return inventory.ExpiringWithin(all, now, days), nil
}

func (r *memBatchRepo) FindExpiredActive(ctx context.Context, now time.Time) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.batches {
		if !b.Status.IsTerminal() && b.IsExpired(now) {
			out = append(out, cloneBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) List(ctx context.Context, filter inventory.BatchFilter, page shared.Page) ([]*inventory.Batch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.batches {
		if filter.MedicineID != nil && b.MedicineID != *filter.MedicineID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	return out, int64(len(out)), nil
}

type memStockItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*inventory.StockItem
}

func newMemStockItemRepo() *memStockItemRepo {
	return &memStockItemRepo{items: make(map[uuid.UUID]*inventory.StockItem)}
}

func (r *memStockItemRepo) Save(ctx context.Context, item *inventory.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.MedicineID] = cloneStockItem(item)
	return nil
}

func (r *memStockItemRepo) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) (*inventory.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[medicineID]; ok {
		return cloneStockItem(item), nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockItemRepo) GetOrCreate(ctx context.Context, item *inventory.StockItem) (*inventory.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[item.MedicineID]; ok {
		return cloneStockItem(existing), nil
	}
	r.items[item.MedicineID] = cloneStockItem(item)
	return cloneStockItem(item), nil
}

func (r *memStockItemRepo) List(ctx context.Context, filter inventory.StockItemFilter, page shared.Page) ([]*inventory.StockItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.StockItem
	for _, item := range r.items {
		if filter.MedicineID != nil && item.MedicineID != *filter.MedicineID {
			continue
		}
		if filter.BelowReorder && !item.IsLowStock() {
			continue
		}
		if filter.OutOfStock && !item.IsOutOfStock() {
			continue
		}
		out = append(out, cloneStockItem(item))
	}
	return out, int64(len(out)), nil
}

type memTransactionRepo struct {
	mu      sync.Mutex
	entries []*inventory.StockTransaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{}
}

func (r *memTransactionRepo) Append(ctx context.Context, transaction *inventory.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *transaction
	r.entries = append(r.entries, &c)
	return nil
}

func (r *memTransactionRepo) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) ([]*inventory.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.StockTransaction
	for _, e := range r.entries {
		if e.MedicineID == medicineID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) List(ctx context.Context, filter inventory.TransactionFilter, page shared.Page) ([]*inventory.StockTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.StockTransaction
	for _, e := range r.entries {
		if filter.MedicineID != nil && e.MedicineID != *filter.MedicineID {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*inventory.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[uuid.UUID]*inventory.Alert)}
}

func (r *memAlertRepo) Save(ctx context.Context, alert *inventory.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = cloneAlert(alert)
	return nil
}

func (r *memAlertRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.alerts[id]; ok {
		return cloneAlert(a), nil
	}
	return nil, shared.ErrNotFound
}

func (r *memAlertRepo) FindActiveByCondition(ctx context.Context, alertType inventory.AlertType, medicineID uuid.UUID, batchID *uuid.UUID) (*inventory.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if !a.IsActive() || a.Type != alertType || a.MedicineID != medicineID {
			continue
		}
		if batchID == nil && a.BatchID == nil {
			return cloneAlert(a), nil
		}
		if batchID != nil && a.BatchID != nil && *batchID == *a.BatchID {
			return cloneAlert(a), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAlertRepo) FindActiveByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*inventory.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Alert
	for _, a := range r.alerts {
		if a.IsActive() && a.MedicineID == medicineID {
			out = append(out, cloneAlert(a))
		}
	}
	return out, nil
}

func (r *memAlertRepo) List(ctx context.Context, filter inventory.AlertFilter, page shared.Page) ([]*inventory.Alert, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Alert
	for _, a := range r.alerts {
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.MedicineID != nil && a.MedicineID != *filter.MedicineID {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	return out, int64(len(out)), nil
}
