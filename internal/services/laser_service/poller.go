package laser_service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/interfaces"
	"github.com/twmiller/dl-44/internal/middleware/logging"
)

type activePoll struct {
	ticker *time.Ticker
	done   chan struct{}
}

// PollingManager drives the status synchronizer at a fixed cadence and
// fans the resulting snapshot out to subscribers and telemetry. Alarms
// are surfaced once per pending-alarm id, not once per poll.
type PollingManager struct {
	ctrl      *grbl.Controller
	producer  interfaces.TelemetryService
	publisher interfaces.SnapshotPublisher
	logger    *logging.Logger

	pollMutex   sync.Mutex
	active      *activePoll
	lastAlarmID uint64
}

func NewPollingManager(ctrl *grbl.Controller, producer interfaces.TelemetryService, publisher interfaces.SnapshotPublisher, logger *logging.Logger) *PollingManager {
	return &PollingManager{
		ctrl:      ctrl,
		producer:  producer,
		publisher: publisher,
		logger:    logger.WithPrefix("POLLER"),
	}
}

func (pm *PollingManager) IsPollingActive() bool {
	pm.pollMutex.Lock()
	defer pm.pollMutex.Unlock()
	return pm.active != nil
}

func (pm *PollingManager) StartPolling(interval time.Duration) error {
	pm.pollMutex.Lock()
	defer pm.pollMutex.Unlock()

	if pm.active != nil {
		return fmt.Errorf("polling is already running")
	}
	if interval <= 0 {
		interval = grbl.PollInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	pm.active = &activePoll{ticker: ticker, done: done}

	go func() {
		pm.logger.Info("Starting polling goroutine", "interval", interval)
		defer pm.logger.Info("Polling goroutine stopped")

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pm.pollTick()
			}
		}
	}()

	return nil
}

func (pm *PollingManager) StopPolling() error {
	pm.pollMutex.Lock()
	defer pm.pollMutex.Unlock()
	pm.stopPollingUnsafe()
	return nil
}

// StopPollingForDevice stops the poll loop during a disconnect.
func (pm *PollingManager) StopPollingForDevice() {
	pm.pollMutex.Lock()
	defer pm.pollMutex.Unlock()
	pm.stopPollingUnsafe()
}

func (pm *PollingManager) stopPollingUnsafe() {
	if pm.active == nil {
		return
	}
	pm.active.ticker.Stop()
	close(pm.active.done)
	pm.active = nil
	pm.logger.Info("Polling stopped")
}

// pollTick runs one synchronizer cycle. A failed poll is logged and
// skipped; the next tick tries again.
func (pm *PollingManager) pollTick() {
	if _, err := pm.ctrl.PollOnce(); err != nil {
		pm.logger.Debug("Poll cycle failed", "error", err)
		return
	}

	snap := pm.ctrl.Snapshot()
	pm.surfaceAlarm(snap)

	if pm.publisher != nil {
		pm.publisher.PublishSnapshot(snap)
	}
	pm.publishTelemetry(snap)
}

// surfaceAlarm logs each alarm instance exactly once, keyed by the
// monotonic pending-alarm id.
func (pm *PollingManager) surfaceAlarm(snap grbl.Snapshot) {
	alarm := snap.PendingAlarm
	if alarm == nil || alarm.ID == pm.lastAlarmID {
		return
	}
	pm.lastAlarmID = alarm.ID
	pm.logger.Warn("Device alarm raised", "code", alarm.Code, "alarmID", alarm.ID)
}

func (pm *PollingManager) publishTelemetry(snap grbl.Snapshot) {
	if pm.producer == nil || !pm.producer.Enabled() {
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		pm.logger.Error("Failed to serialize snapshot", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pm.producer.Produce(ctx, []byte(snap.SessionID), payload); err != nil {
		pm.logger.Error("Failed to publish snapshot to Kafka", "error", err)
	}
}
