package handlers

import (
	"net/http"

	"mining_webapp/internal/repository"

	"github.com/gin-gonic/gin"
)

const leaderboardSize = 100

// GetLeaderboard returns the top 100 active users by total earned (default) or xp.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	order := repository.LeaderboardByBalance
	switch c.DefaultQuery("type", "balance") {
	case "balance":
	case "xp":
		order = repository.LeaderboardByXP
	default:
		badRequest(c, "type must be balance or xp")
		return
	}

	top, err := h.Store.Leaderboard(c.Request.Context(), order, leaderboardSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"type":        order,
		"leaderboard": top,
	})
}
