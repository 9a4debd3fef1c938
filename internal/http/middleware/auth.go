package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"mining_webapp/internal/logger"
	"mining_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "user"
	ContextAdmin  = "admin"
)

// Credentials reads the identity proofs from headers, falling back to the userId query parameter.
func Credentials(c *gin.Context) service.Credentials {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		raw = c.Query("userId")
	}
	id, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return service.Credentials{
		UserID:   id,
		AuthKey:  c.GetHeader("X-Auth-Key"),
		InitData: c.GetHeader("X-Telegram-Init-Data"),
	}
}

// UserAuth rejects the request with 401 unless the credentials authenticate an active user.
func UserAuth(auth *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := auth.Authenticate(c.Request.Context(), Credentials(c))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ContextUserID, u.ID)
		c.Set(ContextUser, u)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "user_id", u.ID))
		c.Next()
	}
}

// Identify only records the claimed user id. Used where authentication is switched off.
func Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		cr := Credentials(c)
		if cr.UserID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		c.Set(ContextUserID, cr.UserID)
		c.Next()
	}
}

// AdminAuth requires "Authorization: Bearer <token>" issued by the admin login.
func AdminAuth(tokens *service.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		admin, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ContextAdmin, admin)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "admin", admin))
		c.Next()
	}
}
