package handlers

import (
	"net/http"

	"mining_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type ConversionRequest struct {
	FromCurrency    string            `json:"fromCurrency" binding:"max=16"`
	ToCurrency      string            `json:"toCurrency" binding:"required,max=16"`
	Amount          float64           `json:"amount" binding:"required"`
	ConvertedAmount float64           `json:"convertedAmount"`
	Category        string            `json:"category" binding:"max=64"`
	PackageType     string            `json:"packageType" binding:"max=64"`
	RequiredInfo    map[string]string `json:"requiredInfo"`
}

func (h *Handler) ListConversions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.Conversions.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversions": list})
}

// CreateConversion debits the amount and files a pending request.
func (h *Handler) CreateConversion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid conversion request")
		return
	}
	if req.FromCurrency == "" {
		req.FromCurrency = "DRX"
	}

	conv, err := h.Conversions.Create(c.Request.Context(), userID, service.ConversionRequest{
		FromCurrency:    req.FromCurrency,
		ToCurrency:      req.ToCurrency,
		Amount:          req.Amount,
		ConvertedAmount: req.ConvertedAmount,
		Category:        req.Category,
		PackageType:     req.PackageType,
		RequiredInfo:    req.RequiredInfo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversion": conv})
}
