package grbl

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes an available serial port.
type PortInfo struct {
	// Path is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	Path     string `json:"path"`
	PortType string `json:"port_type"`
	Product  string `json:"product,omitempty"`
	Serial   string `json:"serial_number,omitempty"`
	VID      string `json:"vid,omitempty"`
	PID      string `json:"pid,omitempty"`
}

// ListPorts enumerates the serial ports present on the system.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errSerial(fmt.Sprintf("failed to enumerate ports: %v", err))
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Path: d.Name, PortType: "Unknown"}
		if d.IsUSB {
			info.PortType = "USB"
			info.Product = d.Product
			info.Serial = d.SerialNumber
			info.VID = d.VID
			info.PID = d.PID
		}
		ports = append(ports, info)
	}
	return ports, nil
}

// ioPort is the slice of go.bug.st/serial.Port the worker needs. Test
// doubles implement it to simulate a device.
type ioPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// PortOpener opens a serial channel to the device. The controller takes
// one so tests can substitute a simulated device.
type PortOpener func(path string, baud int) (ioPort, error)

// portReadTimeout keeps the worker's reader loop responsive; reads wake
// up at this interval even with no inbound traffic.
const portReadTimeout = 50 * time.Millisecond

// OpenPort opens path at the given baud with the 8N1 framing GRBL
// expects. It is the production PortOpener.
func OpenPort(path string, baud int) (ioPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, errSerial(fmt.Sprintf("failed to open %s: %v", path, err))
	}
	if err := port.SetReadTimeout(portReadTimeout); err != nil {
		port.Close()
		return nil, errSerial(err.Error())
	}
	return port, nil
}
