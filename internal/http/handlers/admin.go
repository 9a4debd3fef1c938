package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}
	token, err := h.Admin.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": st})
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) AdminSetUserStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	u, err := h.Admin.SetUserStatus(c.Request.Context(), c.GetString(middleware.ContextAdmin), userID, domain.UserStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (h *Handler) AdminPendingConversions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		badRequest(c, "limit must be 1..500")
		return
	}
	list, err := h.Admin.PendingConversions(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversions": list})
}

type ResolveConversionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// AdminResolveConversion approves or rejects a pending conversion; rejection refunds the user.
func (h *Handler) AdminResolveConversion(c *gin.Context) {
	var req ResolveConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "approve is required")
		return
	}
	conv, err := h.Admin.ResolveConversion(c.Request.Context(), c.GetString(middleware.ContextAdmin), c.Param("id"), *req.Approve)
	if err != nil {
		fail(c, err)
		return
	}
	if !*req.Approve {
		if u, err := h.Store.GetUser(c.Request.Context(), conv.UserID); err == nil {
			h.Hub.Push(conv.UserID, u)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversion": conv})
}
