package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/hms/pharmacy/internal/domain/billing"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// The fakes hand out copies on read so, like a real store, nothing
// changes until Save. The rollback assertions depend on that.

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.Batch
}

func copyBatch(b *inventory.Batch) *inventory.Batch {
	c := *b
	return &c
}

func (r *fakeBatchRepo) Save(ctx context.Context, b *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = copyBatch(b)
	return nil
}

func (r *fakeBatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.batches[id]; ok {
		return copyBatch(b), nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindByMedicineAndNumber(ctx context.Context, medicineID uuid.UUID, number string) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.MedicineID == medicineID && b.BatchNumber == number {
			return copyBatch(b), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindDispensable(ctx context.Context, medicineID uuid.UUID, now time.Time) ([]*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.batches {
		if b.MedicineID == medicineID && b.IsDispensable(now) {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) FindExpiring(ctx context.Context, now time.Time, days int) ([]*inventory.Batch, error) {
	return nil, nil
}

func (r *fakeBatchRepo) FindExpiredActive(ctx context.Context, now time.Time) ([]*inventory.Batch, error) {
	return nil, nil
}

func (r *fakeBatchRepo) List(ctx context.Context, f inventory.BatchFilter, p shared.Page) ([]*inventory.Batch, int64, error) {
	return nil, 0, nil
}

// conflictOnceBatchRepo fails the first Save with a version conflict
// and runs the hook, standing in for a competing transaction that
// committed in between read and write.
type conflictOnceBatchRepo struct {
	*fakeBatchRepo
	once   sync.Once
	onLoss func()
}

func (r *conflictOnceBatchRepo) Save(ctx context.Context, b *inventory.Batch) error {
	var lost bool
	r.once.Do(func() {
		lost = true
		if r.onLoss != nil {
			r.onLoss()
		}
	})
	if lost {
		return shared.ErrConcurrencyConflict
	}
	return r.fakeBatchRepo.Save(ctx, b)
}

type fakeStockItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*inventory.StockItem
}

func copyStockItem(i *inventory.StockItem) *inventory.StockItem {
	c := *i
	c.ClearDomainEvents()
	return &c
}

func (r *fakeStockItemRepo) Save(ctx context.Context, item *inventory.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.MedicineID] = copyStockItem(item)
	return nil
}

func (r *fakeStockItemRepo) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) (*inventory.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[medicineID]; ok {
		return copyStockItem(item), nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStockItemRepo) GetOrCreate(ctx context.Context, item *inventory.StockItem) (*inventory.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[item.MedicineID]; ok {
		return copyStockItem(existing), nil
	}
	r.items[item.MedicineID] = copyStockItem(item)
	return copyStockItem(item), nil
}

func (r *fakeStockItemRepo) List(ctx context.Context, f inventory.StockItemFilter, p shared.Page) ([]*inventory.StockItem, int64, error) {
	return nil, 0, nil
}

type fakeTransactionRepo struct {
	mu      sync.Mutex
	entries []*inventory.StockTransaction
}

func (r *fakeTransactionRepo) Append(ctx context.Context, tx *inventory.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, tx)
	return nil
}

func (r *fakeTransactionRepo) FindByMedicineID(ctx context.Context, medicineID uuid.UUID) ([]*inventory.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.StockTransaction
	for _, e := range r.entries {
		if e.MedicineID == medicineID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) List(ctx context.Context, f inventory.TransactionFilter, p shared.Page) ([]*inventory.StockTransaction, int64, error) {
	return nil, 0, nil
}

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*inventory.Alert
}

func copyAlert(a *inventory.Alert) *inventory.Alert {
	c := *a
	c.ClearDomainEvents()
	return &c
}

func (r *fakeAlertRepo) Save(ctx context.Context, a *inventory.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[a.ID] = copyAlert(a)
	return nil
}

func (r *fakeAlertRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.alerts[id]; ok {
		return copyAlert(a), nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeAlertRepo) FindActiveByCondition(ctx context.Context, alertType inventory.AlertType, medicineID uuid.UUID, batchID *uuid.UUID) (*inventory.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if !a.IsActive() || a.Type != alertType || a.MedicineID != medicineID {
			continue
		}
		if batchID == nil && a.BatchID == nil {
			return copyAlert(a), nil
		}
		if batchID != nil && a.BatchID != nil && *batchID == *a.BatchID {
			return copyAlert(a), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeAlertRepo) FindActiveByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*inventory.Alert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) List(ctx context.Context, f inventory.AlertFilter, p shared.Page) ([]*inventory.Alert, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*inventory.Alert
	for _, a := range r.alerts {
		if f.Type != nil && a.Type != *f.Type {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*billing.Sale
	seq   int
}

func copySale(s *billing.Sale) *billing.Sale {
	c := *s
	c.Items = append([]billing.LineItem(nil), s.Items...)
	c.Payments = append([]billing.Payment(nil), s.Payments...)
	c.ClearDomainEvents()
	return &c
}

func (r *fakeSaleRepo) Save(ctx context.Context, sale *billing.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = copySale(sale)
	return nil
}

func (r *fakeSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sales[id]; ok {
		return copySale(s), nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) FindByBillNumber(ctx context.Context, billNumber string) (*billing.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.BillNumber == billNumber {
			return copySale(s), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) NextBillNumber(ctx context.Context, date time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("INV-%s-%04d", date.Format("20060102"), r.seq), nil
}

func (r *fakeSaleRepo) List(ctx context.Context, f billing.SaleFilter, p shared.Page) ([]*billing.Sale, int64, error) {
	return nil, 0, nil
}

type billingFixture struct {
	svc        *BillingService
	sales      *fakeSaleRepo
	batches    *fakeBatchRepo
	items      *fakeStockItemRepo
	txs        *fakeTransactionRepo
	alerts     *fakeAlertRepo
	medicineID uuid.UUID
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	fx := &billingFixture{
		sales:      &fakeSaleRepo{sales: make(map[uuid.UUID]*billing.Sale)},
		batches:    &fakeBatchRepo{batches: make(map[uuid.UUID]*inventory.Batch)},
		items:      &fakeStockItemRepo{items: make(map[uuid.UUID]*inventory.StockItem)},
		txs:        &fakeTransactionRepo{},
		alerts:     &fakeAlertRepo{alerts: make(map[uuid.UUID]*inventory.Alert)},
		medicineID: uuid.New(),
	}
	scope := NewNoOpTransactionScope(fx.sales, fx.batches, fx.items, fx.txs, fx.alerts)
	fx.svc = NewBillingService(scope, fx.sales)
	return fx
}

// seedBatch adds a lot and keeps the stock aggregate in step with it.
func (fx *billingFixture) seedBatch(t *testing.T, number string, quantity int64, expiresInDays int, reorderLevel int64) *inventory.Batch {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	batch, err := inventory.NewBatch(fx.medicineID, number, quantity,
		decimal.NewFromInt(10), decimal.NewFromInt(15),
		now.AddDate(0, -6, 0), now.AddDate(0, 0, expiresInDays), now, "")
	require.NoError(t, err)
	require.NoError(t, fx.batches.Save(ctx, batch))

	seed, err := inventory.NewStockItem(fx.medicineID, 0, 0, reorderLevel)
	require.NoError(t, err)
	item, err := fx.items.GetOrCreate(ctx, seed)
	require.NoError(t, err)
	require.NoError(t, item.ApplyDelta(quantity))
	item.ClearDomainEvents()
	require.NoError(t, fx.items.Save(ctx, item))
	return batch
}

func TestBillingService_CreateSale(t *testing.T) {
	ctx := context.Background()

	t.Run("creates bill, consumes stock and appends ledger entries", func(t *testing.T) {
		fx := newBillingFixture(t)
		batch := fx.seedBatch(t, "BN-001", 100, 365, 10)

		sale, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID:  fx.medicineID,
				Quantity:    3,
				UnitPrice:   decimal.NewFromInt(100),
				DiscountPct: decimal.NewFromInt(10),
				TaxPct:      decimal.NewFromInt(12),
			}},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, sale.BillNumber)
		assert.True(t, sale.TotalAmount.Equal(decimal.NewFromFloat(302.4)), "total %s", sale.TotalAmount)
		require.Len(t, sale.Items, 1)
		assert.Equal(t, batch.ID, sale.Items[0].BatchID)
		require.NotNil(t, sale.Items[0].TransactionID)

		got, err := fx.batches.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(97), got.Quantity)

		item, err := fx.items.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(97), item.CurrentStock)

		entries, err := fx.txs.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, inventory.TransactionTypeSale, entries[0].Type)
		require.NotNil(t, entries[0].ReferenceID)
		assert.Equal(t, sale.ID, *entries[0].ReferenceID)
	})

	t.Run("unpinned line draws from the soonest expiring batch", func(t *testing.T) {
		fx := newBillingFixture(t)
		soon := fx.seedBatch(t, "BN-001", 50, 30, 0)
		fx.seedBatch(t, "BN-002", 50, 90, 0)

		sale, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: fx.medicineID,
				Quantity:   10,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, soon.ID, sale.Items[0].BatchID)
	})

	t.Run("pinned batch must belong to the line's medicine", func(t *testing.T) {
		fx := newBillingFixture(t)
		batch := fx.seedBatch(t, "BN-001", 50, 365, 0)

		_, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: uuid.New(),
				BatchID:    &batch.ID,
				Quantity:   1,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})

	t.Run("insufficient stock aborts the whole sale", func(t *testing.T) {
		fx := newBillingFixture(t)
		big := fx.seedBatch(t, "BN-001", 100, 365, 0)

		_, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{
				{MedicineID: fx.medicineID, Quantity: 10, UnitPrice: decimal.NewFromInt(15)},
				{MedicineID: fx.medicineID, Quantity: 95, UnitPrice: decimal.NewFromInt(15)},
			},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INSUFFICIENT_STOCK"))

		// First line's in-memory consumption must not leak out.
		got, err := fx.batches.FindByID(ctx, big.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Quantity)

		entries, err := fx.txs.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, fx.sales.sales)
	})

	t.Run("two unpinned lines of one medicine share the remaining stock view", func(t *testing.T) {
		fx := newBillingFixture(t)
		small := fx.seedBatch(t, "BN-001", 10, 30, 0)
		large := fx.seedBatch(t, "BN-002", 50, 90, 0)

		sale, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{
				{MedicineID: fx.medicineID, Quantity: 8, UnitPrice: decimal.NewFromInt(15)},
				{MedicineID: fx.medicineID, Quantity: 8, UnitPrice: decimal.NewFromInt(15)},
			},
		})
		require.NoError(t, err)
		// First line drains BN-001 to 2; the second cannot fit there and
		// falls through to BN-002.
		assert.Equal(t, small.ID, sale.Items[0].BatchID)
		assert.Equal(t, large.ID, sale.Items[1].BatchID)

		item, err := fx.items.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(44), item.CurrentStock)
	})

	t.Run("sale that empties stock raises a stock-out alert", func(t *testing.T) {
		fx := newBillingFixture(t)
		fx.seedBatch(t, "BN-001", 5, 365, 3)

		_, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: fx.medicineID,
				Quantity:   5,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.NoError(t, err)

		stockOut := inventory.AlertTypeStockOut
		active := inventory.AlertStatusActive
		alerts, _, err := fx.alerts.List(ctx, inventory.AlertFilter{Type: &stockOut, Status: &active}, shared.DefaultPage())
		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})

	t.Run("rejects empty item list and bad percentages", func(t *testing.T) {
		fx := newBillingFixture(t)
		fx.seedBatch(t, "BN-001", 50, 365, 0)

		_, err := fx.svc.CreateSale(ctx, CreateSaleRequest{PatientID: uuid.New(), GeneratedBy: "c"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))

		_, err = fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "c",
			Items: []SaleItemRequest{{
				MedicineID:  fx.medicineID,
				Quantity:    1,
				UnitPrice:   decimal.NewFromInt(10),
				DiscountPct: decimal.NewFromInt(150),
			}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})

	t.Run("pinned expired batch cannot be sold", func(t *testing.T) {
		fx := newBillingFixture(t)
		batch := fx.seedBatch(t, "BN-001", 50, -1, 0)

		_, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: fx.medicineID,
				BatchID:    &batch.ID,
				Quantity:   1,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INSUFFICIENT_STOCK"))

		got, err := fx.batches.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), got.Quantity)
	})

	t.Run("lost version race retries against fresh stock and rejects oversell", func(t *testing.T) {
		fx := newBillingFixture(t)
		batch := fx.seedBatch(t, "BN-001", 5, 365, 0)

		// The competing sale takes 4 of the 5 units while the first
		// attempt is in flight.
		wrapped := &conflictOnceBatchRepo{fakeBatchRepo: fx.batches}
		wrapped.onLoss = func() {
			b, err := fx.batches.FindByID(ctx, batch.ID)
			require.NoError(t, err)
			require.NoError(t, b.Consume(4))
			require.NoError(t, fx.batches.Save(ctx, b))
			item, err := fx.items.FindByMedicineID(ctx, fx.medicineID)
			require.NoError(t, err)
			require.NoError(t, item.ApplyDelta(-4))
			require.NoError(t, fx.items.Save(ctx, item))
		}
		scope := NewNoOpTransactionScope(fx.sales, wrapped, fx.items, fx.txs, fx.alerts)
		svc := NewBillingService(scope, fx.sales)

		_, err := svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: fx.medicineID,
				Quantity:   4,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INSUFFICIENT_STOCK"))

		got, err := fx.batches.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Quantity)
		assert.Empty(t, fx.sales.sales)
	})

	t.Run("lost version race succeeds on retry when stock remains", func(t *testing.T) {
		fx := newBillingFixture(t)
		batch := fx.seedBatch(t, "BN-001", 5, 365, 0)

		wrapped := &conflictOnceBatchRepo{fakeBatchRepo: fx.batches}
		wrapped.onLoss = func() {
			b, err := fx.batches.FindByID(ctx, batch.ID)
			require.NoError(t, err)
			require.NoError(t, b.Consume(1))
			require.NoError(t, fx.batches.Save(ctx, b))
			item, err := fx.items.FindByMedicineID(ctx, fx.medicineID)
			require.NoError(t, err)
			require.NoError(t, item.ApplyDelta(-1))
			require.NoError(t, fx.items.Save(ctx, item))
		}
		scope := NewNoOpTransactionScope(fx.sales, wrapped, fx.items, fx.txs, fx.alerts)
		svc := NewBillingService(scope, fx.sales)

		sale, err := svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID: fx.medicineID,
				Quantity:   4,
				UnitPrice:  decimal.NewFromInt(15),
			}},
		})
		require.NoError(t, err)
		require.Len(t, sale.Items, 1)

		got, err := fx.batches.FindByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Quantity)

		item, err := fx.items.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), item.CurrentStock)
	})

	t.Run("bill numbers are unique and sequential", func(t *testing.T) {
		fx := newBillingFixture(t)
		fx.seedBatch(t, "BN-001", 100, 365, 0)

		seen := make(map[string]bool)
		for i := 0; i < 3; i++ {
			sale, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
				PatientID:   uuid.New(),
				GeneratedBy: "cashier-1",
				Items: []SaleItemRequest{{
					MedicineID: fx.medicineID,
					Quantity:   1,
					UnitPrice:  decimal.NewFromInt(15),
				}},
			})
			require.NoError(t, err)
			assert.False(t, seen[sale.BillNumber])
			seen[sale.BillNumber] = true
		}
	})
}

func TestBillingService_ApplyPayment(t *testing.T) {
	ctx := context.Background()

	createSale := func(t *testing.T, fx *billingFixture) *billing.Sale {
		t.Helper()
		fx.seedBatch(t, "BN-001", 100, 365, 0)
		sale, err := fx.svc.CreateSale(ctx, CreateSaleRequest{
			PatientID:   uuid.New(),
			GeneratedBy: "cashier-1",
			Items: []SaleItemRequest{{
				MedicineID:  fx.medicineID,
				Quantity:    3,
				UnitPrice:   decimal.NewFromInt(100),
				DiscountPct: decimal.NewFromInt(10),
				TaxPct:      decimal.NewFromInt(12),
			}},
		})
		require.NoError(t, err)
		return sale
	}

	t.Run("partial then full payment", func(t *testing.T) {
		fx := newBillingFixture(t)
		sale := createSale(t, fx)

		updated, err := fx.svc.ApplyPayment(ctx, ApplyPaymentRequest{
			SaleID: sale.ID, Amount: decimal.NewFromInt(100), Method: "CASH", ProcessedBy: "cashier-1",
		})
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusPartial, updated.PaymentStatus)

		updated, err = fx.svc.ApplyPayment(ctx, ApplyPaymentRequest{
			SaleID: sale.ID, Amount: decimal.NewFromFloat(202.4), Method: "CARD", ProcessedBy: "cashier-1",
		})
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusPaid, updated.PaymentStatus)
		assert.Len(t, updated.Payments, 2)
	})

	t.Run("overpayment reads as paid with credit", func(t *testing.T) {
		fx := newBillingFixture(t)
		sale := createSale(t, fx)

		updated, err := fx.svc.ApplyPayment(ctx, ApplyPaymentRequest{
			SaleID: sale.ID, Amount: decimal.NewFromInt(400), Method: "CASH", ProcessedBy: "cashier-1",
		})
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusPaid, updated.PaymentStatus)
		assert.True(t, updated.CreditBalance().Equal(decimal.NewFromFloat(97.6)))
	})

	t.Run("unknown sale and invalid amount", func(t *testing.T) {
		fx := newBillingFixture(t)
		sale := createSale(t, fx)

		_, err := fx.svc.ApplyPayment(ctx, ApplyPaymentRequest{
			SaleID: uuid.New(), Amount: decimal.NewFromInt(10), Method: "CASH", ProcessedBy: "c",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))

		_, err = fx.svc.ApplyPayment(ctx, ApplyPaymentRequest{
			SaleID: sale.ID, Amount: decimal.Zero, Method: "CASH", ProcessedBy: "c",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}
