package grbl

import (
	"fmt"
	"sync"
	"time"

	"github.com/twmiller/dl-44/internal/middleware/logging"
)

// Timeout and retry policy. A line-protocol command is sent up to
// commandAttempts times, waiting commandTimeout for its ok/error after
// each send. Status queries get one shot with a shorter window; a missed
// poll is superseded by the next one rather than retried.
const (
	commandTimeout  = 500 * time.Millisecond
	commandAttempts = 2
	statusTimeout   = 300 * time.Millisecond
	bannerTimeout   = 1 * time.Second
)

// lineCommand is an in-flight line-protocol request. Owned by the worker
// until resolved or exhausted.
type lineCommand struct {
	payload  string
	timeout  time.Duration
	attempts int // max sends
	sent     int // sends so far
	collect  bool
	lines    []string // reply lines preceding the ok, when collect is set
	done     chan *CommandError
}

// statusResult is what a status query resolves with. A timed-out query
// carries no status and fresh=false; it is not an error.
type statusResult struct {
	status  *MachineStatus
	alarm   *int // alarm code observed while waiting
	errCode *int // numbered error observed while waiting
	fresh   bool
	err     *CommandError // transport failure or disconnect only
}

type statusQuery struct {
	timeout time.Duration
	done    chan statusResult
}

type bannerWait struct {
	timeout time.Duration
	done    chan string // welcome banner, "" if none arrived
}

type realtimeSend struct {
	b    byte
	done chan *CommandError
}

// worker owns the open serial channel exclusively. All interaction is by
// message passing; it never shares mutable state with callers. The
// worker is transport plus correlation only: it matches responses to
// requests by arrival order and shape, and leaves protocol semantics to
// the controller.
type worker struct {
	port ioPort
	log  *logging.Logger

	cmdCh    chan *lineCommand
	statusCh chan *statusQuery
	rtCh     chan realtimeSend
	bannerCh chan *bannerWait
	stopCh   chan struct{}

	lines   chan string
	readErr chan error

	// fatal delivers at most one transport failure to the connection
	// manager; done is closed when the run loop has exited and every
	// pending request has been resolved.
	fatal chan *CommandError
	done  chan struct{}

	stopOnce  sync.Once
	closeOnce sync.Once

	// Correlation state. Touched only by the run goroutine.
	pending    []*lineCommand
	inflight   *lineCommand
	cmdTimer   *time.Timer
	statusQ    []*statusQuery
	inflightSQ *statusQuery
	sqTimer    *time.Timer
	banner     *bannerWait
	bannerTmr  *time.Timer
	asyncAlarm *int
	sqAlarm    *int
	sqErrCode  *int
	lastBanner string
}

func startWorker(port ioPort, log *logging.Logger) *worker {
	w := &worker{
		port:     port,
		log:      log.WithPrefix("WORKER"),
		cmdCh:    make(chan *lineCommand, 16),
		statusCh: make(chan *statusQuery, 4),
		rtCh:     make(chan realtimeSend, 16),
		bannerCh: make(chan *bannerWait, 1),
		stopCh:   make(chan struct{}),
		lines:    make(chan string, 32),
		readErr:  make(chan error, 1),
		fatal:    make(chan *CommandError, 1),
		done:     make(chan struct{}),
	}
	go w.readLoop()
	go w.run()
	return w
}

// stop shuts the worker down, resolving every queued and in-flight
// request with NOT_CONNECTED. Safe to call more than once.
func (w *worker) stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// closePort closes the serial channel exactly once.
func (w *worker) closePort() {
	w.closeOnce.Do(func() {
		if err := w.port.Close(); err != nil {
			w.log.Warn("Error closing port", "error", err)
		}
	})
}

// submitCommand hands a line-protocol command to the worker. The
// returned channel resolves exactly once: nil on ok, or a CommandError.
func (w *worker) submitCommand(payload string, timeout time.Duration, attempts int) <-chan *CommandError {
	cmd := &lineCommand{
		payload:  payload,
		timeout:  timeout,
		attempts: attempts,
		done:     make(chan *CommandError, 1),
	}
	select {
	case w.cmdCh <- cmd:
	case <-w.done:
		cmd.done <- errNotConnected()
	}
	return cmd.done
}

// submitQuery sends a view command whose reply lines precede the ok
// ($$, $G, $I, $N). Single send: a resend mid-dump would duplicate
// lines. The returned command's lines are safe to read once done
// resolves.
func (w *worker) submitQuery(payload string, timeout time.Duration) *lineCommand {
	cmd := &lineCommand{
		payload:  payload,
		timeout:  timeout,
		attempts: 1,
		collect:  true,
		done:     make(chan *CommandError, 1),
	}
	select {
	case w.cmdCh <- cmd:
	case <-w.done:
		cmd.done <- errNotConnected()
	}
	return cmd
}

// submitStatusQuery asks for one status report.
func (w *worker) submitStatusQuery(timeout time.Duration) <-chan statusResult {
	q := &statusQuery{timeout: timeout, done: make(chan statusResult, 1)}
	select {
	case w.statusCh <- q:
	case <-w.done:
		q.done <- statusResult{err: errNotConnected()}
	}
	return q.done
}

// submitRealtime dispatches a single realtime byte. Realtime controls
// bypass the command queue; the returned channel only confirms the write.
func (w *worker) submitRealtime(b byte) <-chan *CommandError {
	r := realtimeSend{b: b, done: make(chan *CommandError, 1)}
	select {
	case w.rtCh <- r:
	case <-w.done:
		r.done <- errNotConnected()
	}
	return r.done
}

// awaitBanner waits for a welcome banner line during connect. Resolves
// with "" if the device never emits one inside the window.
func (w *worker) awaitBanner(timeout time.Duration) <-chan string {
	b := &bannerWait{timeout: timeout, done: make(chan string, 1)}
	select {
	case w.bannerCh <- b:
	case <-w.done:
		b.done <- ""
	}
	return b.done
}

// readLoop drains inbound bytes into complete lines. It is the only
// reader of the port; a read failure is fatal and ends the loop. The
// port read timeout returns (0, nil), which doubles as the tick that
// lets the loop notice a stopped worker.
func (w *worker) readLoop() {
	chunk := make([]byte, 256)
	var buf []byte

	for {
		n, err := w.port.Read(chunk)
		if err != nil {
			select {
			case w.readErr <- err:
			default:
			}
			return
		}
		if n == 0 {
			select {
			case <-w.done:
				return
			default:
				continue
			}
		}
		for _, c := range chunk[:n] {
			if c == '\r' {
				continue
			}
			if c == '\n' {
				if len(buf) > 0 {
					select {
					case w.lines <- string(buf):
					case <-w.done:
						return
					}
					buf = buf[:0]
				}
				continue
			}
			buf = append(buf, c)
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (w *worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.stopCh:
			w.flush(errNotConnected())
			w.closePort()
			return

		case err := <-w.readErr:
			ce := errSerial(err.Error())
			w.log.Error("Transport failure", "error", err)
			w.flush(ce)
			w.closePort()
			select {
			case w.fatal <- ce:
			default:
			}
			return

		case cmd := <-w.cmdCh:
			w.pending = append(w.pending, cmd)
			w.startNextCommand()

		case q := <-w.statusCh:
			w.statusQ = append(w.statusQ, q)
			w.startNextStatusQuery()

		case r := <-w.rtCh:
			r.done <- w.write([]byte{r.b})

		case b := <-w.bannerCh:
			if w.lastBanner != "" {
				// Banner already arrived before the waiter registered.
				b.done <- w.lastBanner
				continue
			}
			if w.banner != nil {
				// Only one connect sequence at a time; a second waiter
				// replaces a stale one.
				w.banner.done <- ""
				stopTimer(w.bannerTmr)
			}
			w.banner = b
			w.bannerTmr = time.NewTimer(b.timeout)

		case line := <-w.lines:
			w.handleLine(line)

		case <-timerC(w.cmdTimer):
			w.commandTimedOut()

		case <-timerC(w.sqTimer):
			w.statusQueryTimedOut()

		case <-timerC(w.bannerTmr):
			if w.banner != nil {
				w.banner.done <- ""
				w.banner = nil
			}
			w.bannerTmr = nil
		}
	}
}

// write sends bytes on the channel. Write failures are fatal to the
// connection, mirroring read failures.
func (w *worker) write(data []byte) *CommandError {
	if _, err := w.port.Write(data); err != nil {
		select {
		case w.readErr <- err:
		default:
		}
		return errSerial(err.Error())
	}
	return nil
}

// startNextCommand promotes the oldest pending command when the single
// in-flight slot is free. The device protocol has no request ids, so one
// in-flight command is the invariant that keeps correlation sound.
func (w *worker) startNextCommand() {
	if w.inflight != nil || len(w.pending) == 0 {
		return
	}
	cmd := w.pending[0]
	w.pending = w.pending[1:]
	w.inflight = cmd
	w.sendInflight()
}

func (w *worker) sendInflight() {
	cmd := w.inflight
	cmd.sent++
	w.log.Debug("Sending command", "attempt", cmd.sent, "payload", fmt.Sprintf("%q", cmd.payload))
	if ce := w.write([]byte(cmd.payload)); ce != nil {
		// The write failure escalates through readErr; the command is
		// resolved here so the caller is not left waiting on the flush.
		w.resolveInflight(ce)
		return
	}
	stopTimer(w.cmdTimer)
	w.cmdTimer = time.NewTimer(cmd.timeout)
}

func (w *worker) resolveInflight(ce *CommandError) {
	if w.inflight == nil {
		return
	}
	stopTimer(w.cmdTimer)
	w.cmdTimer = nil
	w.inflight.done <- ce
	w.inflight = nil
	w.startNextCommand()
}

func (w *worker) commandTimedOut() {
	cmd := w.inflight
	if cmd == nil {
		return
	}
	if cmd.sent < cmd.attempts {
		w.log.Debug("Command timeout, resending", "payload", fmt.Sprintf("%q", cmd.payload))
		w.sendInflight()
		return
	}
	w.log.Warn("Command timed out", "attempts", cmd.sent, "payload", fmt.Sprintf("%q", cmd.payload))
	w.resolveInflight(errTimeout(cmd.sent))
}

func (w *worker) startNextStatusQuery() {
	if w.inflightSQ != nil || len(w.statusQ) == 0 {
		return
	}
	q := w.statusQ[0]
	w.statusQ = w.statusQ[1:]
	w.inflightSQ = q
	w.sqAlarm = w.asyncAlarm
	w.asyncAlarm = nil
	w.sqErrCode = nil
	if ce := w.write([]byte{rtStatusQuery}); ce != nil {
		w.resolveStatusQuery(statusResult{err: ce})
		return
	}
	stopTimer(w.sqTimer)
	w.sqTimer = time.NewTimer(q.timeout)
}

func (w *worker) resolveStatusQuery(res statusResult) {
	if w.inflightSQ == nil {
		return
	}
	stopTimer(w.sqTimer)
	w.sqTimer = nil
	res.alarm = w.sqAlarm
	res.errCode = w.sqErrCode
	w.sqAlarm = nil
	w.sqErrCode = nil
	w.inflightSQ.done <- res
	w.inflightSQ = nil
	w.startNextStatusQuery()
}

func (w *worker) statusQueryTimedOut() {
	if w.inflightSQ == nil {
		return
	}
	w.log.Debug("Status query timed out")
	w.resolveStatusQuery(statusResult{fresh: false})
}

// handleLine routes one parsed inbound line. Responses are matched to
// requests purely by shape: ok/error resolve the in-flight command,
// bracketed reports resolve the in-flight status query.
func (w *worker) handleLine(line string) {
	resp := parseLine(line)
	switch resp.kind {
	case respOk:
		if w.inflight != nil {
			w.resolveInflight(nil)
			return
		}
		w.log.Debug("Unsolicited ok dropped")

	case respError:
		if w.inflight != nil {
			w.resolveInflight(errGrbl(resp.code))
			return
		}
		if w.inflightSQ != nil {
			code := resp.code
			w.sqErrCode = &code
			return
		}
		w.log.Warn("Unsolicited error line", "code", resp.code)

	case respAlarm:
		code := resp.code
		w.log.Warn("Alarm raised", "code", code)
		if w.inflight != nil {
			w.resolveInflight(errAlarm(code))
		}
		if w.inflightSQ != nil {
			w.sqAlarm = &code
		} else {
			w.asyncAlarm = &code
		}

	case respStatus:
		if w.inflightSQ != nil {
			if status, ok := ParseStatus(resp.text); ok {
				w.resolveStatusQuery(statusResult{status: &status, fresh: true})
				return
			}
			w.log.Warn("Malformed status report dropped", "line", resp.text)
			return
		}
		w.log.Debug("Unsolicited status report dropped")

	case respWelcome:
		w.lastBanner = resp.text
		if w.banner != nil {
			w.banner.done <- resp.text
			w.banner = nil
			stopTimer(w.bannerTmr)
			w.bannerTmr = nil
			return
		}
		w.log.Info("Device banner", "banner", resp.text)

	case respMessage:
		if w.inflight != nil && w.inflight.collect {
			w.inflight.lines = append(w.inflight.lines, line)
			return
		}
		w.log.Info("Device message", "message", resp.text)

	case respFeedback:
		if w.inflight != nil && w.inflight.collect {
			w.inflight.lines = append(w.inflight.lines, line)
			return
		}
		w.log.Debug("Feedback line dropped", "line", line)

	case respSetting:
		if w.inflight != nil && w.inflight.collect {
			w.inflight.lines = append(w.inflight.lines, line)
			return
		}
		w.log.Debug("Setting line", "setting", resp.code, "value", resp.text)

	default:
		// Unknown shapes are dropped, never treated as a protocol error.
		w.log.Debug("Unrecognized line dropped", "line", line)
	}
}

// flush resolves everything queued or in flight. Called on disconnect
// (NOT_CONNECTED) and on transport failure (SERIAL_ERROR).
func (w *worker) flush(ce *CommandError) {
	if w.inflight != nil {
		stopTimer(w.cmdTimer)
		w.inflight.done <- ce
		w.inflight = nil
	}
	for _, cmd := range w.pending {
		cmd.done <- ce
	}
	w.pending = nil

	if w.inflightSQ != nil {
		stopTimer(w.sqTimer)
		w.inflightSQ.done <- statusResult{err: ce}
		w.inflightSQ = nil
	}
	for _, q := range w.statusQ {
		q.done <- statusResult{err: ce}
	}
	w.statusQ = nil

	if w.banner != nil {
		stopTimer(w.bannerTmr)
		w.banner.done <- ""
		w.banner = nil
	}

	// Requests still parked in the channel buffers get the same answer.
	for {
		select {
		case cmd := <-w.cmdCh:
			cmd.done <- ce
		case q := <-w.statusCh:
			q.done <- statusResult{err: ce}
		case r := <-w.rtCh:
			r.done <- ce
		case b := <-w.bannerCh:
			b.done <- ""
		default:
			return
		}
	}
}
