package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

type memMedicineRepo struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*catalog.Medicine
}

func newMemMedicineRepo() *memMedicineRepo {
	return &memMedicineRepo{medicines: make(map[uuid.UUID]*catalog.Medicine)}
}

func (r *memMedicineRepo) Save(ctx context.Context, medicine *catalog.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medicines[medicine.ID] = medicine
	return nil
}

func (r *memMedicineRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.medicines[id]; ok {
		return m, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memMedicineRepo) FindByIdentity(ctx context.Context, name, strength, dosageForm string) (*catalog.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.medicines {
		if m.Name == name && m.Strength == strength && m.DosageForm == dosageForm {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMedicineRepo) List(ctx context.Context, filter catalog.MedicineFilter, page shared.Page) ([]*catalog.Medicine, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*catalog.Medicine, 0, len(r.medicines))
	for _, m := range r.medicines {
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) typeCount(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type stockFixture struct {
	svc        *StockService
	medicines  *memMedicineRepo
	batches    *memBatchRepo
	items      *memStockItemRepo
	txs        *memTransactionRepo
	alerts     *memAlertRepo
	published  *capturingPublisher
	medicineID uuid.UUID
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()
	fx := &stockFixture{
		medicines: newMemMedicineRepo(),
		batches:   newMemBatchRepo(),
		items:     newMemStockItemRepo(),
		txs:       newMemTransactionRepo(),
		alerts:    newMemAlertRepo(),
		published: &capturingPublisher{},
	}

	med, err := catalog.NewMedicine("Paracetamol", "Acetaminophen", "", "GSK", "Tablet", "500mg", "", false)
	require.NoError(t, err)
	require.NoError(t, fx.medicines.Save(context.Background(), med))
	fx.medicineID = med.ID

	scope := NewNoOpTransactionScope(fx.batches, fx.items, fx.txs, fx.alerts)
	fx.svc = NewStockService(scope, fx.medicines, fx.batches, fx.items, fx.txs, fx.alerts)
	fx.svc.SetEventPublisher(fx.published)
	return fx
}

func (fx *stockFixture) receive(t *testing.T, batchNumber string, quantity int64, expiresInDays int, reorderLevel int64) *inventory.Batch {
	t.Helper()
	now := time.Now()
	batch, err := fx.svc.ReceiveBatch(context.Background(), ReceiveBatchRequest{
		MedicineID:        fx.medicineID,
		BatchNumber:       batchNumber,
		Quantity:          quantity,
		UnitCost:          decimal.NewFromInt(10),
		SellingPrice:      decimal.NewFromInt(15),
		ManufacturingDate: now.AddDate(0, -6, 0),
		ExpiryDate:        now.AddDate(0, 0, expiresInDays),
		ReceivedDate:      now,
		ReorderLevel:      reorderLevel,
		MaxStockLevel:     1000,
		PerformedBy:       "pharmacist-1",
	})
	require.NoError(t, err)
	return batch
}

func (fx *stockFixture) activeAlerts(t *testing.T, alertType inventory.AlertType) []*inventory.Alert {
	t.Helper()
	status := inventory.AlertStatusActive
	alerts, _, err := fx.alerts.List(context.Background(), inventory.AlertFilter{
		Type:   &alertType,
		Status: &status,
	}, shared.DefaultPage())
	require.NoError(t, err)
	return alerts
}

func TestStockService_ReceiveBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("creates batch, stock record and purchase entry", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 100, 365, 10)

		assert.Equal(t, inventory.BatchStatusAvailable, batch.Status)

		item, err := fx.svc.GetStock(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), item.CurrentStock)

		entries, err := fx.txs.FindByMedicineID(ctx, fx.medicineID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, inventory.TransactionTypePurchase, entries[0].Type)
		assert.Equal(t, int64(0), entries[0].BalanceBefore)
		assert.Equal(t, int64(100), entries[0].BalanceAfter)
	})

	t.Run("rejects duplicate batch number per medicine", func(t *testing.T) {
		fx := newStockFixture(t)
		fx.receive(t, "BN-001", 100, 365, 10)

		_, err := fx.svc.ReceiveBatch(ctx, ReceiveBatchRequest{
			MedicineID:        fx.medicineID,
			BatchNumber:       "BN-001",
			Quantity:          50,
			ManufacturingDate: time.Now().AddDate(0, -6, 0),
			ExpiryDate:        time.Now().AddDate(1, 0, 0),
			ReceivedDate:      time.Now(),
			PerformedBy:       "pharmacist-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "ALREADY_EXISTS"))
	})

	t.Run("rejects unknown medicine", func(t *testing.T) {
		fx := newStockFixture(t)
		_, err := fx.svc.ReceiveBatch(ctx, ReceiveBatchRequest{
			MedicineID:  uuid.New(),
			BatchNumber: "BN-001",
			Quantity:    10,
			ExpiryDate:  time.Now().AddDate(1, 0, 0),
			PerformedBy: "pharmacist-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))
	})

	t.Run("rejects inactive medicine", func(t *testing.T) {
		fx := newStockFixture(t)
		med, err := fx.medicines.FindByID(ctx, fx.medicineID)
		require.NoError(t, err)
		require.NoError(t, med.Deactivate())

		_, err = fx.svc.ReceiveBatch(ctx, ReceiveBatchRequest{
			MedicineID:        fx.medicineID,
			BatchNumber:       "BN-002",
			Quantity:          10,
			ManufacturingDate: time.Now().AddDate(0, -6, 0),
			ExpiryDate:        time.Now().AddDate(1, 0, 0),
			ReceivedDate:      time.Now(),
			PerformedBy:       "pharmacist-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "CONFLICT"))
	})

	t.Run("raises expiry warning for near-expiry receipt", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-003", 20, 20, 5)

		warnings := fx.activeAlerts(t, inventory.AlertTypeExpiryWarning)
		require.Len(t, warnings, 1)
		require.NotNil(t, warnings[0].BatchID)
		assert.Equal(t, batch.ID, *warnings[0].BatchID)
	})
}

func TestStockService_Consume(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements batch and stock, appends sale entry", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 100, 365, 10)

		entry, err := fx.svc.Consume(ctx, ConsumeRequest{
			BatchID:     batch.ID,
			Quantity:    30,
			PerformedBy: "pharmacist-1",
		})
		require.NoError(t, err)
		assert.Equal(t, inventory.TransactionTypeSale, entry.Type)
		assert.Equal(t, int64(100), entry.BalanceBefore)
		assert.Equal(t, int64(70), entry.BalanceAfter)

		item, err := fx.svc.GetStock(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(70), item.CurrentStock)
	})

	t.Run("low stock scenario raises one active alert", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 15, 365, 10)
		assert.Empty(t, fx.activeAlerts(t, inventory.AlertTypeLowStock))

		_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 6, PerformedBy: "pharmacist-1"})
		require.NoError(t, err)

		low := fx.activeAlerts(t, inventory.AlertTypeLowStock)
		require.Len(t, low, 1)

		// Re-triggering the same condition is a no-op.
		_, err = fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 1, PerformedBy: "pharmacist-1"})
		require.NoError(t, err)
		assert.Len(t, fx.activeAlerts(t, inventory.AlertTypeLowStock), 1)
	})

	t.Run("consuming to zero flips batch and raises stock-out", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 8, 365, 10)

		_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 8, PerformedBy: "pharmacist-1"})
		require.NoError(t, err)

		got, err := fx.svc.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusOutOfStock, got.Status)

		assert.Len(t, fx.activeAlerts(t, inventory.AlertTypeStockOut), 1)
		assert.Empty(t, fx.activeAlerts(t, inventory.AlertTypeLowStock))
	})

	t.Run("insufficient stock leaves state untouched", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 5, 365, 0)

		_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 6, PerformedBy: "pharmacist-1"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INSUFFICIENT_STOCK"))

		item, err := fx.svc.GetStock(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), item.CurrentStock)
	})

	t.Run("unknown batch", func(t *testing.T) {
		fx := newStockFixture(t)
		_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: uuid.New(), Quantity: 1, PerformedBy: "pharmacist-1"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))
	})

	t.Run("restock resolves stock-out and produces a fresh alert row on re-trigger", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 5, 365, 3)

		_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 5, PerformedBy: "pharmacist-1"})
		require.NoError(t, err)
		require.Len(t, fx.activeAlerts(t, inventory.AlertTypeStockOut), 1)

		fx.receive(t, "BN-002", 50, 365, 3)
		assert.Empty(t, fx.activeAlerts(t, inventory.AlertTypeStockOut))

		// A resolved alert stays resolved; a new stock-out creates a new row.
		all, _, err := fx.alerts.List(ctx, inventory.AlertFilter{}, shared.DefaultPage())
		require.NoError(t, err)
		resolvedCount := 0
		for _, a := range all {
			if a.Status == inventory.AlertStatusResolved {
				resolvedCount++
			}
		}
		assert.Equal(t, 1, resolvedCount)
	})
}

func TestStockService_WriteOff(t *testing.T) {
	ctx := context.Background()

	t.Run("writes off damaged units", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 20, 365, 5)

		entry, err := fx.svc.WriteOff(ctx, WriteOffRequest{
			BatchID:     batch.ID,
			Quantity:    20,
			Reason:      "DAMAGED",
			PerformedBy: "pharmacist-1",
		})
		require.NoError(t, err)
		assert.Equal(t, inventory.TransactionTypeDamaged, entry.Type)

		got, err := fx.svc.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusDamaged, got.Status)

		item, err := fx.svc.GetStock(ctx, fx.medicineID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), item.CurrentStock)
	})

	t.Run("rejects unknown reason", func(t *testing.T) {
		fx := newStockFixture(t)
		batch := fx.receive(t, "BN-001", 20, 365, 5)

		_, err := fx.svc.WriteOff(ctx, WriteOffRequest{BatchID: batch.ID, Quantity: 1, Reason: "LOST", PerformedBy: "x"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestStockService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("records signed corrections", func(t *testing.T) {
		fx := newStockFixture(t)
		fx.receive(t, "BN-001", 50, 365, 5)

		entry, err := fx.svc.Adjust(ctx, AdjustStockRequest{
			MedicineID:  fx.medicineID,
			Quantity:    3,
			Direction:   "OUT",
			Reason:      "cycle count",
			PerformedBy: "pharmacist-1",
		})
		require.NoError(t, err)
		assert.Equal(t, inventory.TransactionTypeAdjustment, entry.Type)
		assert.Equal(t, int64(47), entry.BalanceAfter)
		assert.Nil(t, entry.BatchID)
	})

	t.Run("guards against going negative", func(t *testing.T) {
		fx := newStockFixture(t)
		fx.receive(t, "BN-001", 5, 365, 0)

		_, err := fx.svc.Adjust(ctx, AdjustStockRequest{
			MedicineID:  fx.medicineID,
			Quantity:    6,
			Direction:   "OUT",
			PerformedBy: "pharmacist-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "INVARIANT_VIOLATION"))
	})
}

func TestStockService_RecallBatch(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	batch := fx.receive(t, "BN-001", 40, 365, 5)

	recalled, err := fx.svc.RecallBatch(ctx, batch.ID, "pharmacist-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.BatchStatusRecalled, recalled.Status)

	item, err := fx.svc.GetStock(ctx, fx.medicineID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.CurrentStock)

	entries, err := fx.txs.FindByMedicineID(ctx, fx.medicineID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, inventory.TransactionTypeAdjustment, entries[1].Type)
	assert.Equal(t, "BATCH_RECALL", entries[1].ReferenceType)
}

func TestStockService_SweepExpired(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	batch := fx.receive(t, "BN-001", 30, 365, 5)

	// Force the lot past its expiry.
	batch.ExpiryDate = time.Now().AddDate(0, 0, -1)
	require.NoError(t, fx.batches.Save(ctx, batch))

	swept, err := fx.svc.SweepExpired(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := fx.svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.BatchStatusExpired, got.Status)

	item, err := fx.svc.GetStock(ctx, fx.medicineID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.CurrentStock)

	// Second sweep finds nothing to do.
	swept, err = fx.svc.SweepExpired(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestStockService_EvaluateExpiryWarnings(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	fx.receive(t, "BN-001", 4, 20, 0)
	fx.receive(t, "BN-002", 4, 300, 0)

	// Receipt already raised the warning for BN-001; re-evaluation must
	// not duplicate it.
	raised, err := fx.svc.EvaluateExpiryWarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, raised)
	assert.Len(t, fx.activeAlerts(t, inventory.AlertTypeExpiryWarning), 1)
}

func TestStockService_ResolveAlert(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	batch := fx.receive(t, "BN-001", 10, 365, 20)
	_ = batch

	low := fx.activeAlerts(t, inventory.AlertTypeLowStock)
	require.Len(t, low, 1)

	resolved, err := fx.svc.ResolveAlert(ctx, low[0].ID, "pharmacist-2", "ordered more")
	require.NoError(t, err)
	assert.Equal(t, inventory.AlertStatusResolved, resolved.Status)

	_, err = fx.svc.ResolveAlert(ctx, low[0].ID, "pharmacist-2", "")
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, "CONFLICT"))

	_, err = fx.svc.ResolveAlert(ctx, uuid.New(), "pharmacist-2", "")
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, "NOT_FOUND"))
}

func TestStockService_Replay(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	batch := fx.receive(t, "BN-001", 100, 365, 10)

	_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 25, PerformedBy: "p"})
	require.NoError(t, err)
	_, err = fx.svc.WriteOff(ctx, WriteOffRequest{BatchID: batch.ID, Quantity: 5, Reason: "DAMAGED", PerformedBy: "p"})
	require.NoError(t, err)
	_, err = fx.svc.Adjust(ctx, AdjustStockRequest{MedicineID: fx.medicineID, Quantity: 2, Direction: "IN", PerformedBy: "p"})
	require.NoError(t, err)

	result, err := fx.svc.Replay(ctx, fx.medicineID)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, int64(72), result.LedgerBalance)
	assert.Equal(t, result.StoredStock, result.LedgerBalance)
	assert.Equal(t, 4, result.EntryCount)
}

func TestStockService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	fx := newStockFixture(t)
	batch := fx.receive(t, "BN-001", 15, 365, 10)

	_, err := fx.svc.Consume(ctx, ConsumeRequest{BatchID: batch.ID, Quantity: 6, PerformedBy: "p"})
	require.NoError(t, err)

	assert.Equal(t, 1, fx.published.typeCount(inventory.EventTypeBatchReceived))
	assert.Equal(t, 2, fx.published.typeCount(inventory.EventTypeStockLevelChanged))
	assert.Equal(t, 1, fx.published.typeCount(inventory.EventTypeAlertRaised))
}
