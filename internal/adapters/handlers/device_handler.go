package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Settings dumps the device settings ($$).
func (h *Handler) Settings(c *gin.Context) {
	lines, err := h.usecase.Settings()
	if err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "settings": lines})
}

// GCodeState returns the G-code parser state ($G).
func (h *Handler) GCodeState(c *gin.Context) {
	lines, err := h.usecase.GCodeState()
	if err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "gcode_state": lines})
}

// BuildInfo returns the firmware build info ($I).
func (h *Handler) BuildInfo(c *gin.Context) {
	lines, err := h.usecase.BuildInfo()
	if err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "build_info": lines})
}

// StartupLines returns the stored startup blocks ($N).
func (h *Handler) StartupLines(c *gin.Context) {
	lines, err := h.usecase.StartupLines()
	if err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "startup_lines": lines})
}

// SafetyDoor triggers the door-hold sequence.
func (h *Handler) SafetyDoor(c *gin.Context) {
	if err := h.usecase.SafetyDoor(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Door hold triggered"})
}

// SpindleStopToggle toggles the spindle during a hold.
func (h *Handler) SpindleStopToggle(c *gin.Context) {
	if err := h.usecase.SpindleStopToggle(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Spindle stop toggled"})
}

// CoolantFloodToggle toggles flood coolant.
func (h *Handler) CoolantFloodToggle(c *gin.Context) {
	if err := h.usecase.CoolantFloodToggle(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Flood coolant toggled"})
}

// CoolantMistToggle toggles mist coolant.
func (h *Handler) CoolantMistToggle(c *gin.Context) {
	if err := h.usecase.CoolantMistToggle(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Mist coolant toggled"})
}

// CheckModeToggle enters or leaves G-code check mode ($C).
func (h *Handler) CheckModeToggle(c *gin.Context) {
	if err := h.usecase.CheckModeToggle(); err != nil {
		h.CommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Check mode toggled"})
}
