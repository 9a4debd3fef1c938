package handlers

import (
	"net/http"

	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	UserID   int64  `json:"userId"`
	AuthKey  string `json:"authKey"`
	InitData string `json:"initData"`
}

// Auth hands the auth key to the Mini App and refreshes the offline accrual snapshot.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "bad request")
			return
		}
	}
	if len(req.InitData) > 4096 {
		badRequest(c, "initData too long")
		return
	}

	cr := middleware.Credentials(c)
	if req.UserID != 0 {
		cr.UserID = req.UserID
	}
	if req.AuthKey != "" {
		cr.AuthKey = req.AuthKey
	}
	if req.InitData != "" {
		cr.InitData = req.InitData
	}

	ctx := c.Request.Context()
	u, ok := h.Authenticator.AuthenticateLogin(ctx, cr)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if snap, err := h.Mining.Snapshot(ctx, u.ID); err != nil {
		logger.Warn("auth: snapshot failed", "user_id", u.ID, "error", err)
	} else {
		u = snap
	}
	h.Audit.LogLogin(ctx, h.Store, u.ID, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"authKey": u.AuthKey,
		"user":    u,
	})
}
