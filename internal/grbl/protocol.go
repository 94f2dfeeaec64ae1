// Package grbl implements the device controller core for GRBL-class
// motion/laser controllers: wire protocol codec, serial I/O worker with
// request/response correlation, status synchronization and the control
// facade consumed by the HTTP boundary.
//
// Protocol reference: https://github.com/gnea/grbl/wiki/Grbl-v1.1-Commands
package grbl

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBaudRate is what GRBL firmware ships with.
const DefaultBaudRate = 115200

// SupportedBaudRates lists the rates commonly accepted by GRBL devices.
var SupportedBaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400}

// Real-time control bytes. These act immediately, bypass the planner and
// are never acknowledged with an ok/error line.
const (
	rtStatusQuery byte = '?'
	rtFeedHold    byte = '!'
	rtCycleStart  byte = '~'
	rtSoftReset   byte = 0x18
	rtSafetyDoor  byte = 0x84
	rtJogCancel   byte = 0x85

	rtFeedOvrReset       byte = 0x90
	rtFeedOvrCoarsePlus  byte = 0x91
	rtFeedOvrCoarseMinus byte = 0x92
	rtFeedOvrFinePlus    byte = 0x93
	rtFeedOvrFineMinus   byte = 0x94

	rtRapidOvrReset   byte = 0x95
	rtRapidOvrHalf    byte = 0x96
	rtRapidOvrQuarter byte = 0x97

	rtSpindleOvrReset       byte = 0x99
	rtSpindleOvrCoarsePlus  byte = 0x9A
	rtSpindleOvrCoarseMinus byte = 0x9B
	rtSpindleOvrFinePlus    byte = 0x9C
	rtSpindleOvrFineMinus   byte = 0x9D

	rtSpindleStopToggle  byte = 0x9E
	rtCoolantFloodToggle byte = 0xA0
	rtCoolantMistToggle  byte = 0xA1
)

// System commands ($ prefix). Sent as terminated lines, acknowledged by
// ok/error.
const (
	cmdHome             = "$H"
	cmdUnlock           = "$X"
	cmdViewSettings     = "$$"
	cmdViewGCodeState   = "$G"
	cmdViewBuildInfo    = "$I"
	cmdViewStartupLines = "$N"
	cmdCheckMode        = "$C"
)

// OverrideAdjust selects a discrete feed or spindle override step. Each
// value maps to exactly one reserved realtime byte; a coarse step is a
// single byte on the wire, not ten fine steps.
type OverrideAdjust string

const (
	OverrideReset       OverrideAdjust = "reset"
	OverrideCoarsePlus  OverrideAdjust = "coarse_plus"
	OverrideCoarseMinus OverrideAdjust = "coarse_minus"
	OverrideFinePlus    OverrideAdjust = "fine_plus"
	OverrideFineMinus   OverrideAdjust = "fine_minus"
)

func feedOverrideByte(adjust OverrideAdjust) (byte, bool) {
	switch adjust {
	case OverrideReset:
		return rtFeedOvrReset, true
	case OverrideCoarsePlus:
		return rtFeedOvrCoarsePlus, true
	case OverrideCoarseMinus:
		return rtFeedOvrCoarseMinus, true
	case OverrideFinePlus:
		return rtFeedOvrFinePlus, true
	case OverrideFineMinus:
		return rtFeedOvrFineMinus, true
	}
	return 0, false
}

func spindleOverrideByte(adjust OverrideAdjust) (byte, bool) {
	switch adjust {
	case OverrideReset:
		return rtSpindleOvrReset, true
	case OverrideCoarsePlus:
		return rtSpindleOvrCoarsePlus, true
	case OverrideCoarseMinus:
		return rtSpindleOvrCoarseMinus, true
	case OverrideFinePlus:
		return rtSpindleOvrFinePlus, true
	case OverrideFineMinus:
		return rtSpindleOvrFineMinus, true
	}
	return 0, false
}

// RapidPreset selects one of the three rapid override values GRBL
// supports. There are no fine steps for the rapid channel.
type RapidPreset string

const (
	RapidFull    RapidPreset = "full"    // 100%
	RapidHalf    RapidPreset = "half"    // 50%
	RapidQuarter RapidPreset = "quarter" // 25%
)

func rapidOverrideByte(preset RapidPreset) (byte, bool) {
	switch preset {
	case RapidFull:
		return rtRapidOvrReset, true
	case RapidHalf:
		return rtRapidOvrHalf, true
	case RapidQuarter:
		return rtRapidOvrQuarter, true
	}
	return 0, false
}

// BuildJog builds a $J= jog line. Nil axes are omitted so the command
// carries only the axes actually moving. Incremental selects G91,
// otherwise G90 absolute.
func BuildJog(x, y, z *float64, feed float64, incremental bool) string {
	var b strings.Builder
	b.WriteString("$J=")
	if incremental {
		b.WriteString("G91")
	} else {
		b.WriteString("G90")
	}
	if x != nil {
		fmt.Fprintf(&b, " X%.3f", *x)
	}
	if y != nil {
		fmt.Fprintf(&b, " Y%.3f", *y)
	}
	if z != nil {
		fmt.Fprintf(&b, " Z%.3f", *z)
	}
	fmt.Fprintf(&b, " F%.3f\n", feed)
	return b.String()
}

// Units selects the unit mode for generated G-code.
type Units string

const (
	UnitsMM   Units = "mm"   // G21
	UnitsInch Units = "inch" // G20
)

// FrameMode selects how the laser behaves while tracing a frame.
type FrameMode string

const (
	// FrameDynamic fires the laser with dynamic power (M4): power scales
	// with speed so corners do not burn.
	FrameDynamic FrameMode = "dynamic"
	// FrameConstant fires at constant power (M3).
	FrameConstant FrameMode = "constant"
	// FrameOff traces the perimeter with the laser disabled, for
	// placement verification only.
	FrameOff FrameMode = "off"
)

// FrameBounds is the rectangle to trace, in the units passed to
// BuildFrame. Inverted bounds are normalized.
type FrameBounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

func (b FrameBounds) normalized() FrameBounds {
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}

// BuildFrame emits the G-code lines tracing the four-corner perimeter of
// bounds at the given feed rate and laser power (S value).
func BuildFrame(bounds FrameBounds, feed float64, power int, units Units, mode FrameMode) []string {
	bounds = bounds.normalized()

	lines := make([]string, 0, 10)
	if units == UnitsInch {
		lines = append(lines, "G20")
	} else {
		lines = append(lines, "G21")
	}
	switch mode {
	case FrameDynamic:
		lines = append(lines, fmt.Sprintf("M4 S%d", power))
	case FrameConstant:
		lines = append(lines, fmt.Sprintf("M3 S%d", power))
	default:
		lines = append(lines, "M5")
	}
	lines = append(lines,
		"G90",
		fmt.Sprintf("G0 X%.3f Y%.3f", bounds.XMin, bounds.YMin),
		fmt.Sprintf("G1 X%.3f Y%.3f F%.3f", bounds.XMax, bounds.YMin, feed),
		fmt.Sprintf("G1 X%.3f Y%.3f", bounds.XMax, bounds.YMax),
		fmt.Sprintf("G1 X%.3f Y%.3f", bounds.XMin, bounds.YMax),
		fmt.Sprintf("G1 X%.3f Y%.3f", bounds.XMin, bounds.YMin),
		"M5",
	)
	return lines
}

// responseKind tags a classified inbound line.
type responseKind int

const (
	respOk responseKind = iota
	respError
	respAlarm
	respStatus
	respMessage
	respFeedback
	respWelcome
	respSetting
	respOther
)

// response is a classified line from the device. Exactly the fields
// implied by kind are set.
type response struct {
	kind responseKind
	code int    // respError, respAlarm, respSetting (setting number)
	text string // respStatus (raw report), respMessage, respFeedback, respWelcome, respSetting (value), respOther
}

// parseLine classifies a single line from the device. Lines matching no
// known shape come back as respOther; the worker logs and drops them,
// they are never a protocol violation.
func parseLine(line string) response {
	line = strings.TrimSpace(line)

	if line == "ok" {
		return response{kind: respOk}
	}
	if rest, ok := strings.CutPrefix(line, "error:"); ok {
		if code, err := strconv.Atoi(rest); err == nil {
			return response{kind: respError, code: code}
		}
	}
	if rest, ok := strings.CutPrefix(line, "ALARM:"); ok {
		if code, err := strconv.Atoi(rest); err == nil {
			return response{kind: respAlarm, code: code}
		}
	}
	if strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">") {
		return response{kind: respStatus, text: line}
	}
	if rest, ok := strings.CutPrefix(line, "[MSG:"); ok {
		if msg, ok := strings.CutSuffix(rest, "]"); ok {
			return response{kind: respMessage, text: msg}
		}
	}
	// Other bracketed feedback: [GC:...], [VER:...], [OPT:...], [G54:...]
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return response{kind: respFeedback, text: line}
	}
	if strings.HasPrefix(line, "Grbl ") {
		return response{kind: respWelcome, text: line}
	}
	if rest, ok := strings.CutPrefix(line, "$"); ok {
		if num, val, found := strings.Cut(rest, "="); found {
			if n, err := strconv.Atoi(num); err == nil {
				return response{kind: respSetting, code: n, text: val}
			}
		}
	}
	return response{kind: respOther, text: line}
}
