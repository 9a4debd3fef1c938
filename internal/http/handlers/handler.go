package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/repository"
	"mining_webapp/internal/service"
	"mining_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

// MembershipStatus reports a raw Telegram chat member status.
type MembershipStatus interface {
	Status(ctx context.Context, userID int64, chatID string) string
}

type Handler struct {
	Store         repository.Store
	Authenticator *service.Authenticator
	Audit         *service.AuditService
	Mining        *service.MiningService
	Bonus         *service.BonusService
	Missions      *service.MissionService
	Conversions   *service.ConversionService
	Admin         *service.AdminService
	Members       MembershipStatus
	Hub           *ws.Hub
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(any) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return 0, false
	}
	v, ok := uidVal.(int64)
	return v, ok
}

func requireUserID(c *gin.Context) (int64, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return userID, ok
}

// fail maps a service error to the response: business outcomes are 200 with
// success=false, everything else is logged and reported as 500.
func fail(c *gin.Context, err error) {
	if service.IsExpected(err) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
