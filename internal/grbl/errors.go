package grbl

import "fmt"

// ErrorCode is the closed taxonomy of failures crossing the controller
// boundary. The presentation layer maps these to human-readable messages.
type ErrorCode string

const (
	CodeNotConnected ErrorCode = "NOT_CONNECTED"
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeGrblError    ErrorCode = "GRBL_ERROR"
	CodeAlarm        ErrorCode = "ALARM"
	CodeSerialError  ErrorCode = "SERIAL_ERROR"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeUnknown      ErrorCode = "UNKNOWN"
)

// CommandError is the only error shape returned by controller operations.
type CommandError struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *CommandError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

func errNotConnected() *CommandError {
	return &CommandError{Message: "not connected to device", Code: CodeNotConnected}
}

func errTimeout(attempts int) *CommandError {
	return &CommandError{
		Message: "command timeout",
		Code:    CodeTimeout,
		Details: fmt.Sprintf("%d attempts", attempts),
	}
}

func errGrbl(code int) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf("GRBL error %d", code),
		Code:    CodeGrblError,
		Details: fmt.Sprintf("code %d", code),
	}
}

func errAlarm(code int) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf("device in alarm state (code %d)", code),
		Code:    CodeAlarm,
		Details: fmt.Sprintf("code %d", code),
	}
}

func errSerial(msg string) *CommandError {
	return &CommandError{Message: "serial error: " + msg, Code: CodeSerialError}
}

func errInvalidState(msg string) *CommandError {
	return &CommandError{Message: msg, Code: CodeInvalidState}
}

func errUnknown(msg string) *CommandError {
	return &CommandError{Message: msg, Code: CodeUnknown}
}

// AsCommandError extracts the structured error from an operation failure.
// Errors from outside the controller collapse to CodeUnknown.
func AsCommandError(err error) *CommandError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CommandError); ok {
		return ce
	}
	return errUnknown(err.Error())
}
