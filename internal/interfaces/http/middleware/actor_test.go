package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/pharmacy/internal/infrastructure/config"
	"github.com/hms/pharmacy/internal/infrastructure/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signActorToken(t *testing.T, cfg config.JWTConfig, username string) string {
	t.Helper()
	claims := ActorClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return signed
}

func TestActor(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "pharmacy"}

	var gotGin, gotCtx string
	r := gin.New()
	r.Use(Actor(cfg))
	r.GET("/", func(c *gin.Context) {
		gotGin = c.GetString("actor")
		gotCtx = logger.GetActor(c.Request.Context())
		c.Status(http.StatusOK)
	})

	serve := func(t *testing.T, header http.Header) {
		t.Helper()
		gotGin, gotCtx = "", ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header = header
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("header fallback sets the actor in gin and request context", func(t *testing.T) {
		serve(t, http.Header{ActorHeader: {"pharmacist-1"}})
		assert.Equal(t, "pharmacist-1", gotGin)
		assert.Equal(t, "pharmacist-1", gotCtx)
	})

	t.Run("valid bearer token wins over the header", func(t *testing.T) {
		token := signActorToken(t, cfg, "dr-stone")
		serve(t, http.Header{
			"Authorization": {"Bearer " + token},
			ActorHeader:     {"pharmacist-1"},
		})
		assert.Equal(t, "dr-stone", gotGin)
		assert.Equal(t, "dr-stone", gotCtx)
	})

	t.Run("invalid token falls back to the header", func(t *testing.T) {
		other := signActorToken(t, config.JWTConfig{Secret: "wrong-secret", Issuer: "pharmacy"}, "dr-stone")
		serve(t, http.Header{
			"Authorization": {"Bearer " + other},
			ActorHeader:     {"pharmacist-1"},
		})
		assert.Equal(t, "pharmacist-1", gotGin)
		assert.Equal(t, "pharmacist-1", gotCtx)
	})

	t.Run("no credentials leaves the actor empty", func(t *testing.T) {
		serve(t, http.Header{})
		assert.Empty(t, gotGin)
		assert.Empty(t, gotCtx)
	})
}
