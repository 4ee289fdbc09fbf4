package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContextHelpers(t *testing.T) {
	base := zap.NewNop()

	t.Run("logger round trip", func(t *testing.T) {
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("missing logger falls back to no-op", func(t *testing.T) {
		log := FromContext(context.Background())
		require.NotNil(t, log)
		log.Info("must not panic")
	})

	t.Run("request id round trip", func(t *testing.T) {
		ctx, enriched := WithRequestID(context.Background(), base, "req-123")
		assert.Equal(t, "req-123", GetRequestID(ctx))
		assert.NotNil(t, enriched)
		assert.Equal(t, "", GetRequestID(context.Background()))
	})

	t.Run("actor round trip", func(t *testing.T) {
		ctx, _ := WithActor(context.Background(), base, "pharmacist-1")
		assert.Equal(t, "pharmacist-1", GetActor(ctx))
		assert.Equal(t, "", GetActor(context.Background()))
	})
}
