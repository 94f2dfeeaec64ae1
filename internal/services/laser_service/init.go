package laser_service

import (
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/interfaces"
	"github.com/twmiller/dl-44/internal/middleware/logging"
)

type laserService struct {
	connMgr *ConnectionManager
	pollMgr *PollingManager
}

func NewLaserService(producer interfaces.TelemetryService, publisher interfaces.SnapshotPublisher, logger *logging.Logger) interfaces.LaserService {
	ctrl := grbl.NewController(logger)
	pollingManager := NewPollingManager(ctrl, producer, publisher, logger)
	connectionManager := NewConnectionManager(ctrl, pollingManager, logger)

	return &laserService{
		connMgr: connectionManager,
		pollMgr: pollingManager,
	}
}

func (s *laserService) ListPorts() ([]grbl.PortInfo, error) {
	return s.connMgr.ListPorts()
}

func (s *laserService) BaudRates() []int {
	return s.connMgr.BaudRates()
}

func (s *laserService) Connect(req models.ConnectRequest) (*models.ConnectionInfo, error) {
	return s.connMgr.Connect(req)
}

func (s *laserService) Disconnect() error {
	return s.connMgr.Disconnect()
}

func (s *laserService) IsConnected() bool {
	return s.connMgr.IsConnected()
}

func (s *laserService) Snapshot() grbl.Snapshot {
	return s.connMgr.Snapshot()
}

func (s *laserService) Jog(req models.JogRequest) error {
	return s.connMgr.Jog(req)
}

func (s *laserService) JogCancel() error {
	return s.connMgr.JogCancel()
}

func (s *laserService) Home() error {
	return s.connMgr.Home()
}

func (s *laserService) Unlock() error {
	return s.connMgr.Unlock()
}

func (s *laserService) FeedHold() error {
	return s.connMgr.FeedHold()
}

func (s *laserService) CycleStart() error {
	return s.connMgr.CycleStart()
}

func (s *laserService) SoftReset() error {
	return s.connMgr.SoftReset()
}

func (s *laserService) FeedOverride(adjust string) error {
	return s.connMgr.FeedOverride(adjust)
}

func (s *laserService) SpindleOverride(adjust string) error {
	return s.connMgr.SpindleOverride(adjust)
}

func (s *laserService) RapidOverride(preset string) error {
	return s.connMgr.RapidOverride(preset)
}

func (s *laserService) RunFrame(req models.FrameRequest) error {
	return s.connMgr.RunFrame(req)
}

func (s *laserService) PollOnce() (grbl.MachineStatus, error) {
	return s.connMgr.PollOnce()
}

func (s *laserService) SafetyDoor() error {
	return s.connMgr.SafetyDoor()
}

func (s *laserService) SpindleStopToggle() error {
	return s.connMgr.SpindleStopToggle()
}

func (s *laserService) CoolantFloodToggle() error {
	return s.connMgr.CoolantFloodToggle()
}

func (s *laserService) CoolantMistToggle() error {
	return s.connMgr.CoolantMistToggle()
}

func (s *laserService) CheckModeToggle() error {
	return s.connMgr.CheckModeToggle()
}

func (s *laserService) Settings() ([]string, error) {
	return s.connMgr.Settings()
}

func (s *laserService) GCodeState() ([]string, error) {
	return s.connMgr.GCodeState()
}

func (s *laserService) BuildInfo() ([]string, error) {
	return s.connMgr.BuildInfo()
}

func (s *laserService) StartupLines() ([]string, error) {
	return s.connMgr.StartupLines()
}

func (s *laserService) StartPolling(interval time.Duration) error {
	return s.pollMgr.StartPolling(interval)
}

func (s *laserService) StopPolling() error {
	return s.pollMgr.StopPolling()
}

func (s *laserService) IsPollingActive() bool {
	return s.pollMgr.IsPollingActive()
}
