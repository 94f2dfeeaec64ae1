package grbl

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/twmiller/dl-44/internal/middleware/logging"
)

// ConnectionPhase is the tag of the connection state machine.
type ConnectionPhase string

const (
	PhaseDisconnected ConnectionPhase = "disconnected"
	PhaseConnecting   ConnectionPhase = "connecting"
	PhaseConnected    ConnectionPhase = "connected"
	PhaseError        ConnectionPhase = "error"
)

// ConnectionState is the tagged connection state. Port and Baud are set
// only in the connected phase; Message only in the error phase.
type ConnectionState struct {
	Phase   ConnectionPhase `json:"phase"`
	Port    string          `json:"port,omitempty"`
	Baud    int             `json:"baud,omitempty"`
	Message string          `json:"message,omitempty"`
}

// PendingAlarm records an alarm observed during polling. ID increases
// monotonically and changes only for a genuinely new alarm instance, so
// the presentation layer can surface each alarm exactly once.
type PendingAlarm struct {
	Code int    `json:"code"`
	ID   uint64 `json:"id"`
}

// Snapshot is the single read model exposed to callers. It is always
// internally consistent: it is assembled under the state lock in one
// step, never from a half-updated status.
type Snapshot struct {
	Connection   ConnectionState `json:"connection"`
	SessionID    string          `json:"session_id,omitempty"`
	Status       MachineStatus   `json:"status"`
	Welcome      *string         `json:"welcome_message,omitempty"`
	LastError    *string         `json:"last_error,omitempty"`
	PendingAlarm *PendingAlarm   `json:"pending_alarm,omitempty"`
	StatusFresh  bool            `json:"status_is_fresh"`
}

// sessionState is the shared mutable session state. Guarded by
// Controller.mu, which is never held across an I/O wait.
type sessionState struct {
	connection   ConnectionState
	sessionID    string
	status       MachineStatus
	welcome      *string
	lastError    *string
	pendingAlarm *PendingAlarm
	statusFresh  bool
	alarmSeq     uint64
}

// Controller is the facade over the connection manager, command queue
// and status synchronizer. It is safe for concurrent use; operations
// never block on serial I/O beyond their bounded timeouts.
type Controller struct {
	mu     sync.Mutex
	st     sessionState
	worker *worker
	opener PortOpener
	log    *logging.Logger
}

func NewController(log *logging.Logger) *Controller {
	return NewControllerWithOpener(OpenPort, log)
}

// NewControllerWithOpener lets tests substitute a simulated device.
func NewControllerWithOpener(opener PortOpener, log *logging.Logger) *Controller {
	return &Controller{
		opener: opener,
		log:    log.WithPrefix("CONTROLLER"),
		st: sessionState{
			connection: ConnectionState{Phase: PhaseDisconnected},
			status:     DefaultStatus(),
		},
	}
}

// ListPorts enumerates available serial ports.
func (c *Controller) ListPorts() ([]PortInfo, error) {
	return ListPorts()
}

// BaudRates returns the supported baud rates.
func (c *Controller) BaudRates() []int {
	rates := make([]int, len(SupportedBaudRates))
	copy(rates, SupportedBaudRates)
	return rates
}

// Connect opens the serial channel and starts the worker. The device is
// soft-reset and given a bounded window to emit its welcome banner;
// banner absence is tolerated since some firmware/port combinations
// never emit one after a warm reset.
func (c *Controller) Connect(port string, baud int) error {
	c.mu.Lock()
	switch c.st.connection.Phase {
	case PhaseConnecting, PhaseConnected:
		c.mu.Unlock()
		return errInvalidState("already connected")
	}
	c.st.connection = ConnectionState{Phase: PhaseConnecting}
	c.st.lastError = nil
	c.st.pendingAlarm = nil
	c.mu.Unlock()

	c.log.Info("Connecting", "port", port, "baud", baud)

	p, err := c.opener(port, baud)
	if err != nil {
		ce := AsCommandError(err)
		c.failConnect(ce)
		return ce
	}

	w := startWorker(p, c.log)

	// Register the banner waiter first, then wake the device with a
	// soft reset; the reset byte is never queued behind anything.
	bannerDone := w.awaitBanner(bannerTimeout)
	if ce := c.await(w, w.submitRealtime(rtSoftReset)); ce != nil {
		w.stop()
		c.failConnect(ce)
		return ce
	}

	banner := <-bannerDone

	c.mu.Lock()
	if c.st.connection.Phase != PhaseConnecting {
		// A concurrent disconnect won; do not resurrect the session.
		c.mu.Unlock()
		w.stop()
		return errNotConnected()
	}
	c.st.connection = ConnectionState{Phase: PhaseConnected, Port: port, Baud: baud}
	c.st.sessionID = uuid.New().String()
	if banner != "" {
		c.st.welcome = &banner
	}
	c.worker = w
	c.mu.Unlock()

	go c.watchWorker(w)

	c.log.Info("Connected", "port", port, "baud", baud, "banner", banner)
	return nil
}

func (c *Controller) failConnect(ce *CommandError) {
	msg := ce.Error()
	c.mu.Lock()
	c.st.connection = ConnectionState{Phase: PhaseError, Message: msg}
	c.st.lastError = &msg
	c.mu.Unlock()
	c.log.Error("Connect failed", "error", msg)
}

// watchWorker escalates a transport failure: the connection transitions
// to the error phase and the channel is closed exactly once (by the
// worker). Runs once per connected session.
func (c *Controller) watchWorker(w *worker) {
	select {
	case ce := <-w.fatal:
		msg := ce.Error()
		c.mu.Lock()
		if c.worker == w {
			c.st.connection = ConnectionState{Phase: PhaseError, Message: msg}
			c.st.lastError = &msg
			c.st.statusFresh = false
			c.worker = nil
		}
		c.mu.Unlock()
		c.log.Error("Connection lost", "error", msg)
	case <-w.done:
	}
}

// Disconnect is idempotent: it always stops the worker and returns the
// controller to the disconnected state. Every in-flight queued request
// is resolved with NOT_CONNECTED rather than left waiting.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	w := c.worker
	c.worker = nil
	c.st = sessionState{
		connection: ConnectionState{Phase: PhaseDisconnected},
		status:     DefaultStatus(),
		alarmSeq:   c.st.alarmSeq,
	}
	c.mu.Unlock()

	if w != nil {
		w.stop()
	}
	c.log.Info("Disconnected")
	return nil
}

// IsConnected reports whether a device session is open.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.connection.Phase == PhaseConnected
}

// Snapshot returns the read model. Pure read, never touches I/O.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Connection:   c.st.connection,
		SessionID:    c.st.sessionID,
		Status:       c.st.status,
		Welcome:      c.st.welcome,
		LastError:    c.st.lastError,
		PendingAlarm: c.st.pendingAlarm,
		StatusFresh:  c.st.statusFresh,
	}
}

// Status returns the cached machine status without touching the device.
func (c *Controller) Status() MachineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.status
}

// PollOnce drives one status synchronizer cycle: query the device,
// reconcile the cached status, freshness and pending alarm. Scheduling
// the cadence is the caller's job. A timed-out query keeps the previous
// status values and only clears freshness, so the UI degrades to
// "stale" rather than "unknown".
func (c *Controller) PollOnce() (MachineStatus, error) {
	w, ce := c.gate()
	if ce != nil {
		return DefaultStatus(), ce
	}

	res := c.awaitStatus(w, w.submitStatusQuery(statusTimeout))
	if res.err != nil {
		msg := res.err.Error()
		c.mu.Lock()
		status := c.st.status
		if c.st.connection.Phase == PhaseConnected {
			c.st.statusFresh = false
			c.st.lastError = &msg
		}
		c.mu.Unlock()
		return status, res.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.connection.Phase != PhaseConnected {
		return c.st.status, errNotConnected()
	}

	c.st.statusFresh = res.fresh
	if res.status != nil {
		c.st.status = *res.status
		if res.fresh && c.st.status.State != StateAlarm {
			c.st.pendingAlarm = nil
		}
	}

	if res.alarm != nil {
		c.recordAlarmLocked(*res.alarm)
	} else if res.status != nil && res.status.State == StateAlarm && c.st.pendingAlarm == nil {
		// Alarm state without an ALARM line: code unknown, still
		// surfaced exactly once.
		c.recordAlarmLocked(0)
	}

	if res.errCode != nil {
		msg := fmt.Sprintf("error:%d", *res.errCode)
		c.st.lastError = &msg
	}

	return c.st.status, nil
}

// recordAlarmLocked assigns a new monotonic alarm id only when the code
// differs from the alarm already pending. Repeated polls of one physical
// alarm condition therefore surface a single notification.
func (c *Controller) recordAlarmLocked(code int) {
	if c.st.pendingAlarm != nil && c.st.pendingAlarm.Code == code {
		return
	}
	c.st.alarmSeq++
	c.st.pendingAlarm = &PendingAlarm{Code: code, ID: c.st.alarmSeq}
	msg := fmt.Sprintf("ALARM:%d", code)
	c.st.lastError = &msg
}

// Jog issues an incremental or absolute jog on the given axes. Valid
// only while idle or already jogging; otherwise INVALID_STATE without a
// single byte reaching the transport.
func (c *Controller) Jog(x, y, z *float64, feed float64, incremental bool) error {
	c.mu.Lock()
	if c.st.connection.Phase != PhaseConnected {
		c.mu.Unlock()
		return errNotConnected()
	}
	switch c.st.status.State {
	case StateIdle, StateJog:
	default:
		state := c.st.status.State
		c.mu.Unlock()
		return errInvalidState(fmt.Sprintf("cannot jog in %s state", state))
	}
	w := c.worker
	done := w.submitCommand(BuildJog(x, y, z, feed, incremental), commandTimeout, commandAttempts)
	c.mu.Unlock()

	return c.finish(c.await(w, done))
}

// JogCancel stops an active jog. Failures are intentionally swallowed:
// a cancel that cannot be delivered is harmless and never surfaced.
func (c *Controller) JogCancel() error {
	w, ce := c.gate()
	if ce != nil {
		return nil
	}
	if ce := c.await(w, w.submitRealtime(rtJogCancel)); ce != nil {
		c.log.Debug("Jog cancel not delivered", "error", ce.Error())
	}
	return nil
}

// Home runs the homing cycle.
func (c *Controller) Home() error {
	return c.sendCommand(cmdHome + "\n")
}

// Unlock clears an alarm lock ($X). The pending alarm is cleared on the
// attempt so the same alarm is not re-surfaced after a manual unlock.
func (c *Controller) Unlock() error {
	c.mu.Lock()
	c.st.pendingAlarm = nil
	c.mu.Unlock()
	return c.sendCommand(cmdUnlock + "\n")
}

// FeedHold pauses motion.
func (c *Controller) FeedHold() error {
	return c.sendRealtime(rtFeedHold)
}

// CycleStart resumes from a feed hold.
func (c *Controller) CycleStart() error {
	return c.sendRealtime(rtCycleStart)
}

// SoftReset resets the device. The cached status is reset too since the
// device forgets its state.
func (c *Controller) SoftReset() error {
	if err := c.sendRealtime(rtSoftReset); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.status = DefaultStatus()
	c.st.pendingAlarm = nil
	c.st.statusFresh = false
	c.mu.Unlock()
	return nil
}

// FeedOverride applies one discrete feed override step.
func (c *Controller) FeedOverride(adjust OverrideAdjust) error {
	b, ok := feedOverrideByte(adjust)
	if !ok {
		return errInvalidState(fmt.Sprintf("unknown override adjustment %q", adjust))
	}
	return c.sendRealtime(b)
}

// SpindleOverride applies one discrete spindle/laser override step.
func (c *Controller) SpindleOverride(adjust OverrideAdjust) error {
	b, ok := spindleOverrideByte(adjust)
	if !ok {
		return errInvalidState(fmt.Sprintf("unknown override adjustment %q", adjust))
	}
	return c.sendRealtime(b)
}

// SafetyDoor triggers the door-hold sequence.
func (c *Controller) SafetyDoor() error {
	return c.sendRealtime(rtSafetyDoor)
}

// SpindleStopToggle toggles the spindle while motion is held.
func (c *Controller) SpindleStopToggle() error {
	return c.sendRealtime(rtSpindleStopToggle)
}

// CoolantFloodToggle toggles flood coolant.
func (c *Controller) CoolantFloodToggle() error {
	return c.sendRealtime(rtCoolantFloodToggle)
}

// CoolantMistToggle toggles mist coolant.
func (c *Controller) CoolantMistToggle() error {
	return c.sendRealtime(rtCoolantMistToggle)
}

// CheckModeToggle enters or leaves G-code check mode ($C).
func (c *Controller) CheckModeToggle() error {
	return c.sendCommand(cmdCheckMode + "\n")
}

// Settings dumps the device settings ($$) as raw "$N=V" lines.
func (c *Controller) Settings() ([]string, error) {
	return c.viewCommand(cmdViewSettings + "\n")
}

// GCodeState returns the parser state report ($G).
func (c *Controller) GCodeState() ([]string, error) {
	return c.viewCommand(cmdViewGCodeState + "\n")
}

// BuildInfo returns the firmware build info ($I).
func (c *Controller) BuildInfo() ([]string, error) {
	return c.viewCommand(cmdViewBuildInfo + "\n")
}

// StartupLines returns the stored startup blocks ($N).
func (c *Controller) StartupLines() ([]string, error) {
	return c.viewCommand(cmdViewStartupLines + "\n")
}

// RapidOverride sets the rapid channel to one of the fixed presets
// (100/50/25); no other values are reachable.
func (c *Controller) RapidOverride(preset RapidPreset) error {
	b, ok := rapidOverrideByte(preset)
	if !ok {
		return errInvalidState(fmt.Sprintf("unknown rapid preset %q", preset))
	}
	return c.sendRealtime(b)
}

// RunFrame traces the four-corner perimeter of bounds for job placement
// verification. Idle-only; the frame must have a non-zero area.
func (c *Controller) RunFrame(bounds FrameBounds, feed float64, power int, units Units, mode FrameMode) error {
	if math.Abs(bounds.XMax-bounds.XMin) < 1e-9 || math.Abs(bounds.YMax-bounds.YMin) < 1e-9 {
		return errInvalidState("frame must have non-zero width and height")
	}

	c.mu.Lock()
	if c.st.connection.Phase != PhaseConnected {
		c.mu.Unlock()
		return errNotConnected()
	}
	if c.st.status.State != StateIdle {
		state := c.st.status.State
		c.mu.Unlock()
		return errInvalidState(fmt.Sprintf("cannot run frame in %s state", state))
	}
	c.mu.Unlock()

	for _, line := range BuildFrame(bounds, feed, power, units, mode) {
		if err := c.sendCommand(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// gate checks the connected phase and captures the worker under the
// lock, so the check and the subsequent enqueue are atomic with respect
// to a concurrent disconnect.
func (c *Controller) gate() (*worker, *CommandError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.connection.Phase != PhaseConnected || c.worker == nil {
		return nil, errNotConnected()
	}
	return c.worker, nil
}

func (c *Controller) sendCommand(payload string) error {
	c.mu.Lock()
	if c.st.connection.Phase != PhaseConnected || c.worker == nil {
		c.mu.Unlock()
		return errNotConnected()
	}
	w := c.worker
	done := w.submitCommand(payload, commandTimeout, commandAttempts)
	c.mu.Unlock()

	return c.finish(c.await(w, done))
}

// viewCommand runs a multi-line view command and returns its reply
// lines.
func (c *Controller) viewCommand(payload string) ([]string, error) {
	c.mu.Lock()
	if c.st.connection.Phase != PhaseConnected || c.worker == nil {
		c.mu.Unlock()
		return nil, errNotConnected()
	}
	w := c.worker
	cmd := w.submitQuery(payload, commandTimeout)
	c.mu.Unlock()

	if ce := c.await(w, cmd.done); ce != nil {
		return nil, c.finish(ce)
	}
	return cmd.lines, nil
}

func (c *Controller) sendRealtime(b byte) error {
	w, ce := c.gate()
	if ce != nil {
		return ce
	}
	return c.finish(c.await(w, w.submitRealtime(b)))
}

// await waits for a request resolution. The worker resolves every
// request within its bounded timeout; if the worker exits first, a late
// buffered resolution is still honored.
func (c *Controller) await(w *worker, done <-chan *CommandError) *CommandError {
	select {
	case ce := <-done:
		return ce
	case <-w.done:
		select {
		case ce := <-done:
			return ce
		default:
			return errNotConnected()
		}
	}
}

func (c *Controller) awaitStatus(w *worker, done <-chan statusResult) statusResult {
	select {
	case res := <-done:
		return res
	case <-w.done:
		select {
		case res := <-done:
			return res
		default:
			return statusResult{err: errNotConnected()}
		}
	}
}

// finish records a command failure in the session state. Protocol-level
// failures are local to the command; only transport failures tear the
// connection down, and that happens in watchWorker.
func (c *Controller) finish(ce *CommandError) error {
	if ce == nil {
		return nil
	}
	msg := ce.Error()
	c.mu.Lock()
	c.st.lastError = &msg
	c.mu.Unlock()
	return ce
}

// PollInterval is the default status poll cadence.
const PollInterval = 250 * time.Millisecond
