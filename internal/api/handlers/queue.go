package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/printdesk/internal/core"
)

type QueueHandler struct {
	engine *core.Engine
}

type TriggerPrintRequest struct {
	QueueNumber int64 `json:"queueNumber" binding:"required"`
}

func NewQueueHandler(engine *core.Engine) *QueueHandler {
	return &QueueHandler{engine: engine}
}

// TriggerPrint asks the merchant page to execute the job. The actual printing
// happens on the merchant's machine.
func (h *QueueHandler) TriggerPrint(c *gin.Context) {
	var req TriggerPrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.engine.TriggerPrint(req.QueueNumber); err != nil {
		switch {
		case errors.Is(err, core.ErrRequestNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "print request not found"})
		case errors.Is(err, core.ErrPaymentNotConfirmed):
			c.JSON(http.StatusConflict, gin.H{"error": "payment not confirmed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger print"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "print trigger sent to merchant page"})
}

func (h *QueueHandler) GetRequest(c *gin.Context) {
	queueNumber, err := strconv.ParseInt(c.Query("queueNumber"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "queueNumber query parameter is required"})
		return
	}

	req, ok := h.engine.Get(queueNumber)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *QueueHandler) GetQueue(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *QueueHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Stats())
}
