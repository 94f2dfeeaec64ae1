package handlers

import (
	"net/http"

	"github.com/twmiller/dl-44/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Jog moves the requested axes at the requested feed.
func (h *Handler) Jog(c *gin.Context) {
	var req models.JogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	if req.X == nil && req.Y == nil && req.Z == nil {
		h.BadRequest(c, nil, "At least one axis is required")
		return
	}

	if err := h.usecase.Jog(req); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Jog dispatched"})
}

// JogCancel stops an active jog.
func (h *Handler) JogCancel(c *gin.Context) {
	if err := h.usecase.JogCancel(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Jog cancelled"})
}

// Home runs the homing cycle.
func (h *Handler) Home(c *gin.Context) {
	if err := h.usecase.Home(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Homing completed"})
}

// Unlock clears an alarm lock.
func (h *Handler) Unlock(c *gin.Context) {
	if err := h.usecase.Unlock(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Alarm lock cleared"})
}

// FeedHold pauses motion.
func (h *Handler) FeedHold(c *gin.Context) {
	if err := h.usecase.FeedHold(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Feed hold"})
}

// CycleStart resumes from a feed hold.
func (h *Handler) CycleStart(c *gin.Context) {
	if err := h.usecase.CycleStart(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Cycle start"})
}

// SoftReset resets the device.
func (h *Handler) SoftReset(c *gin.Context) {
	if err := h.usecase.SoftReset(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Device reset"})
}

// FeedOverride applies one discrete feed override step.
func (h *Handler) FeedOverride(c *gin.Context) {
	var req models.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	if err := h.usecase.FeedOverride(req.Adjust); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Feed override applied"})
}

// SpindleOverride applies one discrete spindle/laser override step.
func (h *Handler) SpindleOverride(c *gin.Context) {
	var req models.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	if err := h.usecase.SpindleOverride(req.Adjust); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Spindle override applied"})
}

// RapidOverride selects a rapid override preset.
func (h *Handler) RapidOverride(c *gin.Context) {
	var req models.RapidOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	if err := h.usecase.RapidOverride(req.Preset); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Rapid override applied"})
}

// RunFrame traces the job perimeter.
func (h *Handler) RunFrame(c *gin.Context) {
	var req models.FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	if err := h.usecase.RunFrame(req); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Frame completed"})
}
