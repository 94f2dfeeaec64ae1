package handlers

import (
	"net/http"

	"github.com/twmiller/dl-44/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// ListPorts returns the serial ports visible on the host.
func (h *Handler) ListPorts(c *gin.Context) {
	ports, err := h.usecase.ListPorts()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ports": ports})
}

// BaudRates returns the supported baud rates.
func (h *Handler) BaudRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "baud_rates": h.usecase.BaudRates()})
}

// Connect opens the device session on the requested port.
func (h *Handler) Connect(c *gin.Context) {
	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Attempting to open a connection", "port", req.Port, "baud", req.Baud)

	connInfo, err := h.usecase.Connect(req)
	if err != nil {
		h.CommandError(c, err)
		return
	}

	h.logger.Info("Successfully opened connection", "sessionID", connInfo.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connection_info": connInfo})
}

// Disconnect closes the device session. Idempotent.
func (h *Handler) Disconnect(c *gin.Context) {
	h.logger.Info("Attempting to close the connection")

	if err := h.usecase.Disconnect(); err != nil {
		h.CommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Device disconnected successfully",
	})
}

// GetConnection reports the session state without touching the device.
func (h *Handler) GetConnection(c *gin.Context) {
	snap := h.usecase.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"connected":  h.usecase.IsConnected(),
		"connection": snap.Connection,
		"session_id": snap.SessionID,
	})
}

// GetSnapshot returns the full controller read model.
func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "snapshot": h.usecase.Snapshot()})
}
