package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMissions возвращает все активные миссии
func (h *Handler) GetMissions(c *gin.Context) {
	missions, err := h.Missions.ActiveMissions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "missions": missions})
}

// GetUserMissions возвращает прогресс пользователя по миссиям
func (h *Handler) GetUserMissions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.Missions.UserMissions(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userMissions": list})
}

func (h *Handler) StartMission(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	um, err := h.Missions.StartMission(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userMission": um})
}

type ClaimMissionRequest struct {
	Code string `json:"code"`
}

// ClaimMission verifies the mission and credits its reward once.
func (h *Handler) ClaimMission(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req ClaimMissionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "bad request")
			return
		}
	}

	res, err := h.Missions.ClaimMission(c.Request.Context(), userID, c.Param("id"), req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	h.Hub.Push(userID, res.User)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"missionId": res.MissionID,
		"reward":    res.Reward,
		"user":      res.User,
	})
}

// VerifyTelegram reports the user's membership status in a chat. Any failure reads as "none".
func (h *Handler) VerifyTelegram(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	channel := c.Query("channelId")
	if channel == "" {
		badRequest(c, "channelId is required")
		return
	}

	status := h.Members.Status(c.Request.Context(), userID, channel)
	verified := status == "member" || status == "administrator" || status == "creator"
	c.JSON(http.StatusOK, gin.H{"success": true, "verified": verified, "status": status})
}

type RedeemPromoRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

func (h *Handler) RedeemPromoCode(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req RedeemPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}

	res, err := h.Missions.RedeemPromoCode(c.Request.Context(), userID, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	if res.User != nil {
		h.Hub.Push(userID, res.User)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}
