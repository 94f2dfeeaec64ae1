package models

import "time"

// ConnectRequest opens a session on a serial port.
type ConnectRequest struct {
	Port string `json:"port" binding:"required"` // "/dev/ttyUSB0", "COM3"
	Baud int    `json:"baud"`                    // 0 selects the default rate
}

// PollingRequest starts the background status poll.
type PollingRequest struct {
	Interval int `json:"interval"` // milliseconds, 0 selects the default cadence
}

// ConnectionInfo describes the open device session.
type ConnectionInfo struct {
	SessionID   string    `json:"session_id"`
	Port        string    `json:"port"`
	Baud        int       `json:"baud"`
	Welcome     string    `json:"welcome_message,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}
