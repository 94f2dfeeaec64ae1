package handlers

import (
	"net/http"
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// StartPolling starts the background status poll.
func (h *Handler) StartPolling(c *gin.Context) {
	var req models.PollingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	duration := time.Duration(req.Interval) * time.Millisecond
	h.logger.Info("Attempting to start polling", "interval", duration)

	if err := h.usecase.StartPolling(duration); err != nil {
		h.CommandError(c, err)
		return
	}

	h.logger.Info("Polling started successfully")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Polling started",
	})
}

// StopPolling stops the background status poll.
func (h *Handler) StopPolling(c *gin.Context) {
	h.logger.Info("Attempting to stop polling")

	if err := h.usecase.StopPolling(); err != nil {
		h.InternalError(c, err)
		return
	}

	h.logger.Info("Polling stopped successfully")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Polling stopped",
	})
}

// PollOnce runs a single status cycle on demand.
func (h *Handler) PollOnce(c *gin.Context) {
	status, err := h.usecase.PollOnce()
	if err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "machine_status": status})
}
