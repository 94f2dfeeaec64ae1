package dl44

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/middleware/logging"
)

// Client is the entry point for embedding the controller in another Go
// program. It wraps the device facade behind a plain API and manages its
// own logger.
type Client struct {
	ctrl   *grbl.Controller
	config *Config
	logger *logrus.Logger
}

// New creates a client. The device is not opened until Connect.
func New(cfg *Config) (*Client, error) {
	logger := logrus.New()

	if cfg.LogLevel == "off" || cfg.LogLevel == "none" {
		logger.SetOutput(io.Discard)
	} else {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		logger.SetOutput(os.Stdout)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	ctrl := grbl.NewController(logging.FromLogrus(logger, "DL44"))

	return &Client{
		ctrl:   ctrl,
		config: cfg,
		logger: logger,
	}, nil
}

// Connect opens the configured serial port.
func (c *Client) Connect() error {
	return c.ctrl.Connect(c.config.Port, c.config.Baud)
}

// Close tears the device session down. Safe to call when disconnected.
func (c *Client) Close() {
	_ = c.ctrl.Disconnect()
}

// GetLogger returns the logger in use.
func (c *Client) GetLogger() *logrus.Logger {
	return c.logger
}

// ListPorts enumerates the serial ports visible on the host.
func (c *Client) ListPorts() ([]grbl.PortInfo, error) {
	return c.ctrl.ListPorts()
}

// BaudRates returns the supported baud rates.
func (c *Client) BaudRates() []int {
	return c.ctrl.BaudRates()
}

// IsConnected reports whether a device session is open.
func (c *Client) IsConnected() bool {
	return c.ctrl.IsConnected()
}

// Snapshot returns the full controller read model.
func (c *Client) Snapshot() grbl.Snapshot {
	return c.ctrl.Snapshot()
}

// Status returns the cached machine status without touching the device.
func (c *Client) Status() grbl.MachineStatus {
	return c.ctrl.Status()
}

// Poll runs one status cycle against the device.
func (c *Client) Poll() (grbl.MachineStatus, error) {
	return c.ctrl.PollOnce()
}

// PollInterval returns the recommended poll cadence.
func (c *Client) PollInterval() time.Duration {
	return grbl.PollInterval
}

// Jog moves the given axes; nil axes do not move.
func (c *Client) Jog(x, y, z *float64, feed float64, incremental bool) error {
	return c.ctrl.Jog(x, y, z, feed, incremental)
}

// JogCancel stops an active jog.
func (c *Client) JogCancel() error {
	return c.ctrl.JogCancel()
}

// Home runs the homing cycle.
func (c *Client) Home() error {
	return c.ctrl.Home()
}

// Unlock clears an alarm lock.
func (c *Client) Unlock() error {
	return c.ctrl.Unlock()
}

// FeedHold pauses motion.
func (c *Client) FeedHold() error {
	return c.ctrl.FeedHold()
}

// CycleStart resumes from a feed hold.
func (c *Client) CycleStart() error {
	return c.ctrl.CycleStart()
}

// SoftReset resets the device.
func (c *Client) SoftReset() error {
	return c.ctrl.SoftReset()
}

// FeedOverride applies one discrete feed override step.
func (c *Client) FeedOverride(adjust grbl.OverrideAdjust) error {
	return c.ctrl.FeedOverride(adjust)
}

// SpindleOverride applies one discrete spindle/laser override step.
func (c *Client) SpindleOverride(adjust grbl.OverrideAdjust) error {
	return c.ctrl.SpindleOverride(adjust)
}

// RapidOverride selects a rapid override preset.
func (c *Client) RapidOverride(preset grbl.RapidPreset) error {
	return c.ctrl.RapidOverride(preset)
}

// RunFrame traces the perimeter of the given rectangle.
func (c *Client) RunFrame(bounds grbl.FrameBounds, feed float64, power int, units grbl.Units, mode grbl.FrameMode) error {
	return c.ctrl.RunFrame(bounds, feed, power, units, mode)
}

// SafetyDoor triggers the door-hold sequence.
func (c *Client) SafetyDoor() error {
	return c.ctrl.SafetyDoor()
}

// SpindleStopToggle toggles the spindle during a hold.
func (c *Client) SpindleStopToggle() error {
	return c.ctrl.SpindleStopToggle()
}

// CoolantFloodToggle toggles flood coolant.
func (c *Client) CoolantFloodToggle() error {
	return c.ctrl.CoolantFloodToggle()
}

// CoolantMistToggle toggles mist coolant.
func (c *Client) CoolantMistToggle() error {
	return c.ctrl.CoolantMistToggle()
}

// CheckModeToggle enters or leaves G-code check mode.
func (c *Client) CheckModeToggle() error {
	return c.ctrl.CheckModeToggle()
}

// Settings dumps the device settings as raw "$N=V" lines.
func (c *Client) Settings() ([]string, error) {
	return c.ctrl.Settings()
}

// GCodeState returns the G-code parser state report.
func (c *Client) GCodeState() ([]string, error) {
	return c.ctrl.GCodeState()
}

// BuildInfo returns the firmware build info.
func (c *Client) BuildInfo() ([]string, error) {
	return c.ctrl.BuildInfo()
}

// StartupLines returns the stored startup blocks.
func (c *Client) StartupLines() ([]string, error) {
	return c.ctrl.StartupLines()
}
