package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert(t *testing.T) {
	t.Run("creates an active alert with a raised event", func(t *testing.T) {
		alert, err := NewAlert(AlertTypeLowStock, uuid.New(), nil, "stock at 9, reorder level 10")
		require.NoError(t, err)
		assert.Equal(t, AlertStatusActive, alert.Status)
		assert.True(t, alert.IsActive())

		events := alert.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeAlertRaised, events[0].EventType())
	})

	t.Run("expiry warnings require a batch", func(t *testing.T) {
		_, err := NewAlert(AlertTypeExpiryWarning, uuid.New(), nil, "")
		assert.Error(t, err)

		batchID := uuid.New()
		alert, err := NewAlert(AlertTypeExpiryWarning, uuid.New(), &batchID, "")
		require.NoError(t, err)
		assert.Equal(t, &batchID, alert.BatchID)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewAlert(AlertType("BOGUS"), uuid.New(), nil, "")
		assert.Error(t, err)
	})
}

func TestAlert_ConditionKey(t *testing.T) {
	medID := uuid.New()
	batchID := uuid.New()

	t.Run("same condition yields same key", func(t *testing.T) {
		a, err := NewAlert(AlertTypeStockOut, medID, nil, "")
		require.NoError(t, err)
		b, err := NewAlert(AlertTypeStockOut, medID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, a.ConditionKey(), b.ConditionKey())
	})

	t.Run("batch scoped conditions differ from medicine scoped ones", func(t *testing.T) {
		medLevel, err := NewAlert(AlertTypeLowStock, medID, nil, "")
		require.NoError(t, err)
		batchLevel, err := NewAlert(AlertTypeExpiryWarning, medID, &batchID, "")
		require.NoError(t, err)
		assert.NotEqual(t, medLevel.ConditionKey(), batchLevel.ConditionKey())
	})
}

func TestAlert_Resolve(t *testing.T) {
	t.Run("resolves an active alert", func(t *testing.T) {
		alert, err := NewAlert(AlertTypeLowStock, uuid.New(), nil, "")
		require.NoError(t, err)

		require.NoError(t, alert.Resolve("pharmacist-1", "restocked"))
		assert.Equal(t, AlertStatusResolved, alert.Status)
		assert.NotNil(t, alert.ResolvedAt)
		assert.Equal(t, "pharmacist-1", alert.ResolvedBy)
	})

	t.Run("rejects resolving twice", func(t *testing.T) {
		alert, err := NewAlert(AlertTypeLowStock, uuid.New(), nil, "")
		require.NoError(t, err)
		require.NoError(t, alert.Resolve("pharmacist-1", ""))

		err = alert.Resolve("pharmacist-2", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already resolved")
	})

	t.Run("requires a resolver", func(t *testing.T) {
		alert, err := NewAlert(AlertTypeStockOut, uuid.New(), nil, "")
		require.NoError(t, err)
		assert.Error(t, alert.Resolve("", ""))
	})
}
