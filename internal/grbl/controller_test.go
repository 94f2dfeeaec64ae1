package grbl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twmiller/dl-44/internal/middleware/logging"
)

const testBanner = "Grbl 1.1h ['$' for help]"

func idleReport() string {
	return "<Idle|MPos:0.000,0.000,0.000|FS:0,0|Ov:100,100,100>"
}

func alarmReport() string {
	return "<Alarm|MPos:0.000,0.000,0.000>"
}

func okReplies(string) []string { return []string{"ok"} }

// connectedController opens a session against the fake device and fails
// the test if the handshake does not succeed.
func connectedController(t *testing.T, d *fakeDevice) *Controller {
	t.Helper()
	c := NewControllerWithOpener(d.opener(), logging.Discard())
	require.NoError(t, c.Connect("/dev/ttyFAKE", DefaultBaudRate))
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.FailNow(t, msg)
}

func TestConnectWithBanner(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: idleReport}
	c := connectedController(t, d)

	require.True(t, c.IsConnected())

	snap := c.Snapshot()
	require.Equal(t, PhaseConnected, snap.Connection.Phase)
	require.Equal(t, "/dev/ttyFAKE", snap.Connection.Port)
	require.Equal(t, DefaultBaudRate, snap.Connection.Baud)
	require.NotEmpty(t, snap.SessionID)
	require.NotNil(t, snap.Welcome)
	require.Equal(t, testBanner, *snap.Welcome)
	require.Contains(t, d.receivedRealtime(), byte(rtSoftReset))
}

func TestConnectWithoutBanner(t *testing.T) {
	d := &fakeDevice{statusLine: idleReport}
	c := connectedController(t, d)

	snap := c.Snapshot()
	require.Equal(t, PhaseConnected, snap.Connection.Phase)
	require.Nil(t, snap.Welcome)
}

func TestConnectTwiceRejected(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	err := c.Connect("/dev/ttyFAKE", DefaultBaudRate)
	require.Error(t, err)
	require.Equal(t, CodeInvalidState, AsCommandError(err).Code)
}

func TestOperationsWhenDisconnected(t *testing.T) {
	c := NewControllerWithOpener((&fakeDevice{}).opener(), logging.Discard())

	require.Equal(t, CodeNotConnected, AsCommandError(c.Home()).Code)
	require.Equal(t, CodeNotConnected, AsCommandError(c.FeedHold()).Code)
	_, err := c.PollOnce()
	require.Equal(t, CodeNotConnected, AsCommandError(err).Code)

	// Cancel never surfaces a delivery failure.
	require.NoError(t, c.JogCancel())
}

func TestCommandsRunOneAtATimeInOrder(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	homeDone := make(chan error, 1)
	go func() { homeDone <- c.Home() }()
	waitFor(t, time.Second, func() bool { return len(d.receivedLines()) == 1 }, "home never sent")

	unlockDone := make(chan error, 1)
	go func() { unlockDone <- c.Unlock() }()
	// The second command must stay queued behind the unanswered first.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, []string{"$H"}, d.receivedLines())

	d.push("ok")
	waitFor(t, time.Second, func() bool { return len(d.receivedLines()) == 2 }, "unlock never sent")
	require.Equal(t, []string{"$H", "$X"}, d.receivedLines())

	d.push("ok")
	require.NoError(t, <-homeDone)
	require.NoError(t, <-unlockDone)
}

func TestDisconnectFlushesPending(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() { errs <- c.Home() }()
	}
	waitFor(t, time.Second, func() bool { return len(d.receivedLines()) >= 1 }, "no command reached the device")

	require.NoError(t, c.Disconnect())
	for i := 0; i < 3; i++ {
		select {
		case err := <-errs:
			require.Equal(t, CodeNotConnected, AsCommandError(err).Code)
		case <-time.After(time.Second):
			require.FailNow(t, "pending command left unresolved")
		}
	}
	require.Equal(t, PhaseDisconnected, c.Snapshot().Connection.Phase)
}

func TestCommandTimeoutAfterRetry(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	start := time.Now()
	err := c.Home()
	elapsed := time.Since(start)

	require.Equal(t, CodeTimeout, AsCommandError(err).Code)
	require.Equal(t, []string{"$H", "$H"}, d.receivedLines())
	require.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)

	// A timed-out command does not tear the connection down.
	require.True(t, c.IsConnected())
	snap := c.Snapshot()
	require.NotNil(t, snap.LastError)
}

func TestCommandRetrySucceeds(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	seen := 0
	d.onLine = func(line string) []string {
		seen++
		if seen < 2 {
			return nil // drop the first transmission
		}
		return []string{"ok"}
	}
	c := connectedController(t, d)

	require.NoError(t, c.Home())
	require.Equal(t, []string{"$H", "$H"}, d.receivedLines())
}

func TestGrblErrorKeepsConnection(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	d.onLine = func(string) []string { return []string{"error:20"} }
	c := connectedController(t, d)

	err := c.Home()
	ce := AsCommandError(err)
	require.Equal(t, CodeGrblError, ce.Code)
	require.Contains(t, ce.Message, "20")
	require.True(t, c.IsConnected())
}

func TestPollOnceFreshStaleRecover(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	silent := false
	d.statusLine = func() string {
		if silent {
			return ""
		}
		return "<Idle|MPos:1.000,2.000,3.000|FS:0,0|Ov:100,100,100>"
	}
	c := connectedController(t, d)

	status, err := c.PollOnce()
	require.NoError(t, err)
	require.Equal(t, StateIdle, status.State)
	require.Equal(t, Position{X: 1, Y: 2, Z: 3}, status.MachinePos)
	require.True(t, c.Snapshot().StatusFresh)

	// A missed report keeps the last status but marks it stale.
	silent = true
	status, err = c.PollOnce()
	require.NoError(t, err)
	require.Equal(t, StateIdle, status.State)
	require.Equal(t, Position{X: 1, Y: 2, Z: 3}, status.MachinePos)
	require.False(t, c.Snapshot().StatusFresh)

	silent = false
	_, err = c.PollOnce()
	require.NoError(t, err)
	require.True(t, c.Snapshot().StatusFresh)
}

func TestAlarmSurfacedOnce(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: alarmReport}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)
	first := c.Snapshot().PendingAlarm
	require.NotNil(t, first)

	// Re-polling the same alarm condition must not mint a new id.
	_, err = c.PollOnce()
	require.NoError(t, err)
	again := c.Snapshot().PendingAlarm
	require.NotNil(t, again)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, first.Code, again.Code)

	// Leaving the alarm state clears the pending alarm.
	d.statusLine = idleReport
	_, err = c.PollOnce()
	require.NoError(t, err)
	require.Nil(t, c.Snapshot().PendingAlarm)

	// A fresh alarm instance gets a fresh id.
	d.statusLine = alarmReport
	_, err = c.PollOnce()
	require.NoError(t, err)
	second := c.Snapshot().PendingAlarm
	require.NotNil(t, second)
	require.Greater(t, second.ID, first.ID)
}

func TestAlarmLineCarriesCode(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: alarmReport}
	c := connectedController(t, d)

	d.push("ALARM:2")
	waitFor(t, time.Second, func() bool {
		_, err := c.PollOnce()
		require.NoError(t, err)
		pa := c.Snapshot().PendingAlarm
		return pa != nil && pa.Code == 2
	}, "alarm code never recorded")
}

func TestUnlockClearsPendingAlarm(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: alarmReport, onLine: okReplies}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, c.Snapshot().PendingAlarm)

	require.NoError(t, c.Unlock())
	require.Nil(t, c.Snapshot().PendingAlarm)
	require.Contains(t, d.receivedLines(), "$X")
}

func TestJogRequiresIdleOrJog(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: alarmReport, onLine: okReplies}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)

	x := 10.0
	err = c.Jog(&x, nil, nil, 1000, true)
	require.Equal(t, CodeInvalidState, AsCommandError(err).Code)
	// The rejected jog must not reach the transport.
	for _, line := range d.receivedLines() {
		require.NotContains(t, line, "$J=")
	}

	d.statusLine = idleReport
	_, err = c.PollOnce()
	require.NoError(t, err)

	require.NoError(t, c.Jog(&x, nil, nil, 1000, true))
	require.Contains(t, d.receivedLines(), "$J=G91 X10.000 F1000.000")
}

func TestJogCancelByte(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	require.NoError(t, c.JogCancel())
	rt := d.receivedRealtime()
	require.Equal(t, byte(rtJogCancel), rt[len(rt)-1])
}

func TestRealtimeOverrideBytes(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	require.NoError(t, c.FeedOverride(OverrideCoarsePlus))
	require.NoError(t, c.FeedOverride(OverrideCoarsePlus))
	require.NoError(t, c.FeedOverride(OverrideCoarsePlus))
	require.NoError(t, c.FeedOverride(OverrideReset))
	require.NoError(t, c.RapidOverride(RapidHalf))
	require.NoError(t, c.SpindleOverride(OverrideFinePlus))

	rt := d.receivedRealtime()
	require.Equal(t, []byte{0x91, 0x91, 0x91, 0x90, 0x96, 0x9C}, rt[len(rt)-6:])
}

func TestUnknownOverrideRejected(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	require.Equal(t, CodeInvalidState, AsCommandError(c.FeedOverride("double")).Code)
	require.Equal(t, CodeInvalidState, AsCommandError(c.RapidOverride("third")).Code)
	require.Empty(t, d.receivedLines())
}

func TestHoldResumeReset(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: idleReport}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)

	require.NoError(t, c.FeedHold())
	require.NoError(t, c.CycleStart())
	require.NoError(t, c.SoftReset())

	rt := d.receivedRealtime()
	require.Equal(t, []byte{rtFeedHold, rtCycleStart, rtSoftReset}, rt[len(rt)-3:])

	// The device forgets its state on reset, so the cache does too.
	snap := c.Snapshot()
	require.Equal(t, StateUnknown, snap.Status.State)
	require.False(t, snap.StatusFresh)
	require.True(t, c.IsConnected())
}

func TestRunFrameSendsPerimeter(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: idleReport, onLine: okReplies}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)

	bounds := FrameBounds{XMin: 0, XMax: 100, YMin: 0, YMax: 50}
	require.NoError(t, c.RunFrame(bounds, 2000, 300, UnitsMM, FrameDynamic))

	want := BuildFrame(bounds, 2000, 300, UnitsMM, FrameDynamic)
	require.Equal(t, want, d.receivedLines())
}

func TestRunFrameRejectedOutsideIdle(t *testing.T) {
	d := &fakeDevice{banner: testBanner, statusLine: alarmReport}
	c := connectedController(t, d)

	_, err := c.PollOnce()
	require.NoError(t, err)

	bounds := FrameBounds{XMin: 0, XMax: 100, YMin: 0, YMax: 50}
	err = c.RunFrame(bounds, 2000, 300, UnitsMM, FrameDynamic)
	require.Equal(t, CodeInvalidState, AsCommandError(err).Code)
	require.Empty(t, d.receivedLines())
}

func TestRunFrameRejectsZeroArea(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	err := c.RunFrame(FrameBounds{XMin: 5, XMax: 5, YMin: 0, YMax: 10}, 2000, 300, UnitsMM, FrameDynamic)
	require.Equal(t, CodeInvalidState, AsCommandError(err).Code)
}

func TestSettingsDump(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	d.onLine = func(line string) []string {
		if line == "$$" {
			return []string{"$0=10", "$1=25", "$110=5000.000", "ok"}
		}
		return []string{"ok"}
	}
	c := connectedController(t, d)

	lines, err := c.Settings()
	require.NoError(t, err)
	require.Equal(t, []string{"$0=10", "$1=25", "$110=5000.000"}, lines)
}

func TestBuildInfoCollectsFeedbackLines(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	d.onLine = func(line string) []string {
		if line == "$I" {
			return []string{"[VER:1.1h.20190825:]", "[OPT:V,15,128]", "ok"}
		}
		return []string{"ok"}
	}
	c := connectedController(t, d)

	lines, err := c.BuildInfo()
	require.NoError(t, err)
	require.Equal(t, []string{"[VER:1.1h.20190825:]", "[OPT:V,15,128]"}, lines)
}

func TestAuxiliaryRealtimeBytes(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	require.NoError(t, c.SafetyDoor())
	require.NoError(t, c.SpindleStopToggle())
	require.NoError(t, c.CoolantFloodToggle())
	require.NoError(t, c.CoolantMistToggle())

	rt := d.receivedRealtime()
	require.Equal(t, []byte{0x84, 0x9E, 0xA0, 0xA1}, rt[len(rt)-4:])
}

func TestTransportFailureEntersErrorPhase(t *testing.T) {
	d := &fakeDevice{banner: testBanner}
	c := connectedController(t, d)

	require.NoError(t, d.Close())
	waitFor(t, time.Second, func() bool {
		return c.Snapshot().Connection.Phase == PhaseError
	}, "transport failure never surfaced")

	snap := c.Snapshot()
	require.NotNil(t, snap.LastError)
	require.False(t, c.IsConnected())

	// Disconnect from the error phase returns to disconnected.
	require.NoError(t, c.Disconnect())
	require.Equal(t, PhaseDisconnected, c.Snapshot().Connection.Phase)
}
