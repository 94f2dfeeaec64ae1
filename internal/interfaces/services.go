package interfaces

import (
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
)

// LaserService is the aggregate contract for the device business logic.
type LaserService interface {
	ConnectionManager
	MachineControl
	PollingManager
}

// ConnectionManager manages the single device session.
type ConnectionManager interface {
	ListPorts() ([]grbl.PortInfo, error)
	BaudRates() []int
	Connect(req models.ConnectRequest) (*models.ConnectionInfo, error)
	Disconnect() error
	IsConnected() bool
	Snapshot() grbl.Snapshot
}

// MachineControl is the jog/override/cycle control surface.
type MachineControl interface {
	Jog(req models.JogRequest) error
	JogCancel() error
	Home() error
	Unlock() error
	FeedHold() error
	CycleStart() error
	SoftReset() error
	FeedOverride(adjust string) error
	SpindleOverride(adjust string) error
	RapidOverride(preset string) error
	RunFrame(req models.FrameRequest) error
	PollOnce() (grbl.MachineStatus, error)
	SafetyDoor() error
	SpindleStopToggle() error
	CoolantFloodToggle() error
	CoolantMistToggle() error
	CheckModeToggle() error
	Settings() ([]string, error)
	GCodeState() ([]string, error)
	BuildInfo() ([]string, error)
	StartupLines() ([]string, error)
}

// PollingManager runs the background status poll.
type PollingManager interface {
	StartPolling(interval time.Duration) error
	StopPolling() error
	IsPollingActive() bool
}
