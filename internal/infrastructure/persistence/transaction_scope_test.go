package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appinventory "github.com/hms/pharmacy/internal/application/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockTransactionScope_Execute(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormStockTransactionScope(db)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		batch := makeBatch(t, uuid.New(), "TX-OK", 10, 60)
		err := scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			return repos.BatchRepo().Save(ctx, batch)
		})
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, batch.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		batch := makeBatch(t, uuid.New(), "TX-FAIL", 10, 60)
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = repo.FindByID(ctx, batch.ID)
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))
	})
}
