package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimWelcomeBonus credits the one-time welcome bonus and, with it, the referrer.
func (h *Handler) ClaimWelcomeBonus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	res, err := h.Bonus.ClaimWelcomeBonus(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	h.Hub.Push(userID, res.User)
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"bonus":            res.Bonus,
		"referralCredited": res.ReferralCredited,
		"user":             res.User,
	})
}

// GetReferrals lists the users this user brought in.
func (h *Handler) GetReferrals(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sum, err := h.Bonus.Referrals(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       sum.Count,
		"totalEarned": sum.TotalEarned,
		"referrals":   sum.Referrals,
	})
}
