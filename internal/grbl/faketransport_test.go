package grbl

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// fakeDevice is a scripted GRBL device behind an in-memory serial port.
// It implements ioPort; Read mimics go.bug.st's timeout behavior by
// returning (0, nil) when nothing is buffered.
type fakeDevice struct {
	mu      sync.Mutex
	rx      bytes.Buffer // device -> host
	writes  [][]byte     // every raw write
	lines   []string     // completed command lines received
	rtBytes []byte       // realtime bytes received
	partial []byte
	closed  bool

	// Script hooks. Nil hooks mean the device stays silent.
	banner     string                    // emitted after a soft reset
	statusLine func() string             // reply to '?'
	onLine     func(line string) []string // replies to a command line
}

func isRealtimeByte(b byte) bool {
	return b == rtStatusQuery || b == rtFeedHold || b == rtCycleStart ||
		b == rtSoftReset || b >= 0x80
}

func (d *fakeDevice) Write(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, errors.New("port closed")
	}
	d.writes = append(d.writes, append([]byte(nil), b...))

	if len(b) == 1 && isRealtimeByte(b[0]) {
		d.rtBytes = append(d.rtBytes, b[0])
		switch b[0] {
		case rtSoftReset:
			if d.banner != "" {
				d.rx.WriteString(d.banner + "\r\n")
			}
		case rtStatusQuery:
			if d.statusLine != nil {
				if s := d.statusLine(); s != "" {
					d.rx.WriteString(s + "\r\n")
				}
			}
		}
		return len(b), nil
	}

	for _, c := range b {
		if c == '\r' {
			continue
		}
		if c == '\n' {
			line := string(d.partial)
			d.partial = nil
			d.lines = append(d.lines, line)
			if d.onLine != nil {
				for _, reply := range d.onLine(line) {
					d.rx.WriteString(reply + "\r\n")
				}
			}
			continue
		}
		d.partial = append(d.partial, c)
	}
	return len(b), nil
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	deadline := time.Now().Add(5 * time.Millisecond)
	for {
		d.mu.Lock()
		if d.rx.Len() > 0 {
			n, _ := d.rx.Read(p)
			d.mu.Unlock()
			return n, nil
		}
		closed := d.closed
		d.mu.Unlock()
		if closed {
			return 0, errors.New("port closed")
		}
		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) SetReadTimeout(time.Duration) error { return nil }
func (d *fakeDevice) ResetInputBuffer() error            { return nil }

// push injects a line from the device, as if it arrived asynchronously.
func (d *fakeDevice) push(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx.WriteString(line + "\r\n")
}

func (d *fakeDevice) receivedLines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

func (d *fakeDevice) receivedRealtime() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.rtBytes...)
}

func (d *fakeDevice) opener() PortOpener {
	return func(path string, baud int) (ioPort, error) { return d, nil }
}
