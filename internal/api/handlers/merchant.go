package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/printdesk/printdesk/internal/core"
	"github.com/printdesk/printdesk/internal/db"
)

type MerchantHandler struct {
	engine    *core.Engine
	publicURL string
}

type SaveMerchantRequest struct {
	ShopName string `json:"shopName" binding:"required"`
	UpiID    string `json:"upiId" binding:"required"`
}

func NewMerchantHandler(engine *core.Engine, publicURL string) *MerchantHandler {
	return &MerchantHandler{engine: engine, publicURL: publicURL}
}

// SaveMerchant stores the payout identity the payment descriptors are built
// from. Persisted so the merchant does not reconfigure after a restart.
func (h *MerchantHandler) SaveMerchant(c *gin.Context) {
	var req SaveMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing shop name or UPI ID"})
		return
	}

	if err := db.Profile.SaveProfile(c.Request.Context(), req.ShopName, req.UpiID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to save merchant details"})
		return
	}
	h.engine.SetProfile(core.MerchantProfile{ShopName: req.ShopName, PayoutID: req.UpiID})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Merchant details saved"})
}

func (h *MerchantHandler) GetMerchant(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Profile())
}

// GenerateQR renders the client-onboarding code: walk-up customers scan it to
// open the upload page.
func (h *MerchantHandler) GenerateQR(c *gin.Context) {
	clientURL := h.publicURL + "/?mode=client"
	png, err := qrcode.Encode(clientURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"qrCode": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}
