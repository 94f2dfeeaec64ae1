package laser_service

import (
	"fmt"
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/middleware/logging"
)

// PollingStopper is what the ConnectionManager needs from the
// PollingManager when tearing a session down.
type PollingStopper interface {
	StopPollingForDevice()
}

// ConnectionManager owns the session lifecycle around the device
// controller. A single local device means a single session; there is no
// pool to manage.
type ConnectionManager struct {
	ctrl       *grbl.Controller
	pollingMgr PollingStopper
	logger     *logging.Logger
}

func NewConnectionManager(ctrl *grbl.Controller, pollingMgr PollingStopper, logger *logging.Logger) *ConnectionManager {
	return &ConnectionManager{
		ctrl:       ctrl,
		pollingMgr: pollingMgr,
		logger:     logger.WithPrefix("CONNECTOR"),
	}
}

func (cm *ConnectionManager) ListPorts() ([]grbl.PortInfo, error) {
	return cm.ctrl.ListPorts()
}

func (cm *ConnectionManager) BaudRates() []int {
	return cm.ctrl.BaudRates()
}

func (cm *ConnectionManager) Connect(req models.ConnectRequest) (*models.ConnectionInfo, error) {
	baud := req.Baud
	if baud == 0 {
		baud = grbl.DefaultBaudRate
	}
	if !supportedBaud(baud) {
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}

	if err := cm.ctrl.Connect(req.Port, baud); err != nil {
		return nil, err
	}

	snap := cm.ctrl.Snapshot()
	connInfo := &models.ConnectionInfo{
		SessionID:   snap.SessionID,
		Port:        req.Port,
		Baud:        baud,
		ConnectedAt: time.Now(),
	}
	if snap.Welcome != nil {
		connInfo.Welcome = *snap.Welcome
	}

	cm.logger.Info("Connection created successfully", "sessionID", connInfo.SessionID, "port", req.Port, "baud", baud)
	return connInfo, nil
}

func (cm *ConnectionManager) Disconnect() error {
	cm.pollingMgr.StopPollingForDevice()
	return cm.ctrl.Disconnect()
}

func (cm *ConnectionManager) IsConnected() bool {
	return cm.ctrl.IsConnected()
}

func (cm *ConnectionManager) Snapshot() grbl.Snapshot {
	return cm.ctrl.Snapshot()
}

func supportedBaud(baud int) bool {
	for _, b := range grbl.SupportedBaudRates {
		if b == baud {
			return true
		}
	}
	return false
}
