package interfaces

import (
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
)

// Usecases is the aggregate contract consumed by the HTTP layer.
type Usecases interface {
	ListPorts() ([]grbl.PortInfo, error)
	BaudRates() []int
	Connect(req models.ConnectRequest) (*models.ConnectionInfo, error)
	Disconnect() error
	IsConnected() bool
	Snapshot() grbl.Snapshot
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
	StartPolling(interval time.Duration) error
	StopPolling() error
	IsPollingActive() bool
}
