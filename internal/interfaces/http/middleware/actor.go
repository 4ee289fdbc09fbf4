package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hms/pharmacy/internal/infrastructure/config"
	"github.com/hms/pharmacy/internal/infrastructure/logger"
)

// ActorHeader is a development fallback for identifying the operator
// when no bearer token is sent.
const ActorHeader = "X-Actor"

// ActorClaims are the JWT claims carried by operator tokens
type ActorClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Actor resolves the operator performing the request. A valid bearer
// token wins over the X-Actor header; with neither the actor stays
// empty and handlers fall back to "system".
func Actor(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFromToken(c, cfg)
		if actor == "" {
			actor = c.GetHeader(ActorHeader)
		}
		if actor != "" {
			c.Set("actor", actor)
			reqCtx := c.Request.Context()
			ctx, _ := logger.WithActor(reqCtx, logger.FromContext(reqCtx), actor)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func actorFromToken(c *gin.Context, cfg config.JWTConfig) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := &ActorClaims{}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return claims.Subject
}
