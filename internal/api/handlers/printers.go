package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/printdesk/internal/printer"
)

type PrinterHandler struct {
	registry *printer.Registry
}

type UpdatePrintersRequest struct {
	Printers []printer.Printer `json:"printers"`
}

func NewPrinterHandler(registry *printer.Registry) *PrinterHandler {
	return &PrinterHandler{registry: registry}
}

func (h *PrinterHandler) GetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"printers": h.registry.List()})
}

// UpdatePrinters replaces the stored list with whatever the merchant's
// machine currently reports.
func (h *PrinterHandler) UpdatePrinters(c *gin.Context) {
	var req UpdatePrintersRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Printers == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid printer data"})
		return
	}

	h.registry.Replace(req.Printers)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
