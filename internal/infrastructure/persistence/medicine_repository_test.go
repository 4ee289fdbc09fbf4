package persistence

import (
	"context"
	"testing"

	"github.com/hms/pharmacy/internal/domain/catalog"
	"github.com/hms/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMedicine(t *testing.T, name, strength string) *catalog.Medicine {
	t.Helper()
	medicine, err := catalog.NewMedicine(name, "Paracetamol", "Calpol", "GSK",
		"Tablet", strength, "", false)
	require.NoError(t, err)
	return medicine
}

func TestGormMedicineRepository_FindByIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMedicineRepository(db)
	ctx := context.Background()

	medicine := makeMedicine(t, "Paracetamol", "500mg")
	require.NoError(t, repo.Save(ctx, medicine))

	t.Run("finds the registered identity", func(t *testing.T) {
		found, err := repo.FindByIdentity(ctx, "Paracetamol", "500mg", "Tablet")
		require.NoError(t, err)
		assert.Equal(t, medicine.ID, found.ID)
	})

	t.Run("a different strength is a different identity", func(t *testing.T) {
		_, err := repo.FindByIdentity(ctx, "Paracetamol", "650mg", "Tablet")
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))
	})
}

func TestGormMedicineRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMedicineRepository(db)
	ctx := context.Background()

	first := makeMedicine(t, "Paracetamol", "500mg")
	second := makeMedicine(t, "Amoxicillin", "250mg")
	second.GenericName = "Amoxicillin"
	second.Manufacturer = "Cipla"
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	deactivated := makeMedicine(t, "Ibuprofen", "400mg")
	deactivated.GenericName = "Ibuprofen"
	require.NoError(t, deactivated.Deactivate())
	require.NoError(t, repo.Save(ctx, deactivated))

	t.Run("search matches name case-insensitively", func(t *testing.T) {
		medicines, total, err := repo.List(ctx, catalog.MedicineFilter{Search: "paraceta"}, shared.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, medicines, 1)
		assert.Equal(t, "Paracetamol", medicines[0].Name)
	})

	t.Run("filter by manufacturer", func(t *testing.T) {
		medicines, total, err := repo.List(ctx, catalog.MedicineFilter{Manufacturer: "Cipla"}, shared.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, medicines, 1)
		assert.Equal(t, "Amoxicillin", medicines[0].Name)
	})

	t.Run("inactive entries stay listable", func(t *testing.T) {
		active := false
		medicines, total, err := repo.List(ctx, catalog.MedicineFilter{Active: &active}, shared.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, medicines, 1)
		assert.Equal(t, "Ibuprofen", medicines[0].Name)
	})
}
