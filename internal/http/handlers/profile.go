package handlers

import (
	"net/http"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// MyProfile returns the authenticated user.
func (h *Handler) MyProfile(c *gin.Context) {
	v, ok := c.Get(middleware.ContextUser)
	u, _ := v.(*domain.User)
	if !ok || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// PublicConfig returns the key/value settings the Mini App reads on start.
func (h *Handler) PublicConfig(c *gin.Context) {
	cfg, err := h.Store.PublicConfig(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}
