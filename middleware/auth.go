package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"KaziAI/pkg/config"
	tokenstore "KaziAI/pkg/token"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
)

// Identity resolves the caller for the history/conversation routes. A valid
// Authorization bearer token wins; otherwise the numeric user-id header is
// trusted as-is, which keeps the original client contract (missing header is
// 401, a non-numeric one is 400).
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" {
			uid, jti, err := parseBearer(auth)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.Set(ContextUserIDKey, uid)
			c.Set(ContextJTIKey, jti)
			c.Next()
			return
		}

		raw := strings.TrimSpace(c.GetHeader("user-id"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		uid, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		c.Set(ContextUserIDKey, uint(uid))
		c.Next()
	}
}

// CurrentUserID returns the identity resolved by Identity(), or 0.
func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(ContextUserIDKey)
	uid, _ := v.(uint)
	return uid
}

func parseBearer(header string) (uint, string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, "", errors.New("malformed authorization header")
	}
	return ParseToken(parts[1])
}

// ParseToken validates an HS256 token and returns its subject user id and
// jti. Revoked tokens fail validation.
func ParseToken(tokenStr string) (uint, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}

	jti, _ := claims["jti"].(string)
	if tokenstore.IsRevoked(jti) {
		return 0, "", errors.New("token has been revoked")
	}

	var uid uint64
	switch sub := claims["sub"].(type) {
	case string:
		v, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return 0, "", errors.New("invalid subject in token")
		}
		uid = v
	case float64:
		// jwt lib may parse numeric as float64
		uid = uint64(sub)
	default:
		return 0, "", errors.New("invalid subject in token")
	}
	return uint(uid), jti, nil
}
