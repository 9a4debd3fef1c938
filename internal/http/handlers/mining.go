package handlers

import (
	"net/http"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/http/middleware"
	"mining_webapp/internal/mining"

	"github.com/gin-gonic/gin"
)

func (h *Handler) MiningStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	st, err := h.Mining.Status(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": st})
}

func (h *Handler) StartMining(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	u, err := h.Mining.Start(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	h.Hub.Push(userID, u)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (h *Handler) ClaimMining(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	res, u, err := h.Mining.Claim(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	h.Hub.Push(userID, u)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"earned":   res.Earned,
		"xp":       res.XP,
		"duration": res.Duration,
		"user":     u,
	})
}

type UpgradeRequest struct {
	BoostType string `json:"boostType" binding:"required"`
}

// UpgradeBoost buys the next level of one boost track.
func (h *Handler) UpgradeBoost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "boostType is required")
		return
	}
	bt, err := mining.ParseBoostType(req.BoostType)
	if err != nil {
		fail(c, err)
		return
	}

	res, u, err := h.Mining.Upgrade(c.Request.Context(), userID, bt)
	if err != nil {
		fail(c, err)
		return
	}
	h.Hub.Push(userID, u)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  res,
		"user":    u,
	})
}

// BoostInfo lists the next upgrade cost of every track for the user.
func (h *Handler) BoostInfo(c *gin.Context) {
	v, _ := c.Get(middleware.ContextUser)
	u, ok := v.(*domain.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	rules := h.Mining.Rules()
	boosts := gin.H{}
	for _, bt := range mining.BoostTypes {
		cost, err := rules.Cost(u, bt)
		if err != nil {
			continue
		}
		boosts[string(bt)] = gin.H{"level": mining.Level(u, bt), "nextCost": cost}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "boosts": boosts})
}
