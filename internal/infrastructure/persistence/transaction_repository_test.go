package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionRepository_Append(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	inventoryID := uuid.New()
	medicineID := uuid.New()
	batchID := uuid.New()

	purchase, err := inventory.NewStockTransaction(inventoryID, medicineID, &batchID,
		inventory.TransactionTypePurchase, "", 100, 0, nil, "STOCK_RECEIPT", "pharmacist-1")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, purchase))

	sale, err := inventory.NewStockTransaction(inventoryID, medicineID, &batchID,
		inventory.TransactionTypeSale, "", 30, 100, nil, "SALE", "cashier-1")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, sale))

	t.Run("ledger replays to the stored balance", func(t *testing.T) {
		entries, err := repo.FindByMedicineID(ctx, medicineID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(70), inventory.Replay(entries))
		assert.Equal(t, int64(70), entries[1].BalanceAfter)
	})

	t.Run("filter by type", func(t *testing.T) {
		saleType := inventory.TransactionTypeSale
		entries, total, err := repo.List(ctx, inventory.TransactionFilter{
			MedicineID: &medicineID,
			Type:       &saleType,
		}, shared.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, inventory.DirectionOut, entries[0].Direction)
	})

	t.Run("filter by batch", func(t *testing.T) {
		otherBatch := uuid.New()
		entries, total, err := repo.List(ctx, inventory.TransactionFilter{BatchID: &otherBatch}, shared.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, entries)
	})
}
