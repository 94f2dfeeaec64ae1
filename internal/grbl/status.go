package grbl

import (
	"strconv"
	"strings"
)

// MachineState is the operating state reported in a status record.
type MachineState string

const (
	StateIdle    MachineState = "idle"
	StateRun     MachineState = "run"
	StateHold    MachineState = "hold"
	StateJog     MachineState = "jog"
	StateAlarm   MachineState = "alarm"
	StateDoor    MachineState = "door"
	StateCheck   MachineState = "check"
	StateHome    MachineState = "home"
	StateSleep   MachineState = "sleep"
	StateUnknown MachineState = "unknown"
)

// ParseMachineState maps a report state name to a MachineState. Sub-state
// suffixes ("Hold:0", "Door:1") are stripped.
func ParseMachineState(s string) MachineState {
	base, _, _ := strings.Cut(s, ":")
	switch base {
	case "Idle":
		return StateIdle
	case "Run":
		return StateRun
	case "Hold":
		return StateHold
	case "Jog":
		return StateJog
	case "Alarm":
		return StateAlarm
	case "Door":
		return StateDoor
	case "Check":
		return StateCheck
	case "Home":
		return StateHome
	case "Sleep":
		return StateSleep
	}
	return StateUnknown
}

// Position is a 3D machine coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func parsePosition(s string) (Position, bool) {
	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		return Position{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	z, errZ := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if errX != nil || errY != nil || errZ != nil {
		return Position{}, false
	}
	return Position{X: x, Y: y, Z: z}, true
}

// Overrides holds the three override percentages (100 = no override).
type Overrides struct {
	Feed    int `json:"feed"`
	Rapid   int `json:"rapid"`
	Spindle int `json:"spindle"`
}

// Accessories holds spindle direction and coolant flags from the A field.
type Accessories struct {
	SpindleCW    bool `json:"spindle_cw"`
	SpindleCCW   bool `json:"spindle_ccw"`
	FloodCoolant bool `json:"flood_coolant"`
	MistCoolant  bool `json:"mist_coolant"`
}

// BufferState is the planner/serial buffer occupancy from the Bf field.
type BufferState struct {
	PlannerAvail int `json:"planner_avail"`
	RxAvail      int `json:"rx_avail"`
}

// MachineStatus is a parsed status report. Optional groups are pointers:
// nil means the firmware did not report the field, which is distinct from
// a reported zero.
type MachineStatus struct {
	State        MachineState `json:"state"`
	MachinePos   Position     `json:"machine_pos"`
	WorkPos      *Position    `json:"work_pos,omitempty"`
	WorkOffset   *Position    `json:"work_offset,omitempty"`
	FeedRate     *float64     `json:"feed_rate,omitempty"`
	SpindleSpeed *float64     `json:"spindle_speed,omitempty"`
	Overrides    *Overrides   `json:"overrides,omitempty"`
	InputPins    *string      `json:"input_pins,omitempty"`
	Accessories  *Accessories `json:"accessories,omitempty"`
	Buffer       *BufferState `json:"buffer,omitempty"`
	LineNumber   *int         `json:"line_number,omitempty"`
}

// DefaultStatus is the status held while no report has been received.
func DefaultStatus() MachineStatus {
	return MachineStatus{State: StateUnknown}
}

// ParseStatus parses a bracketed status report:
//
//	<State|MPos:x,y,z|WPos:x,y,z|FS:f,s|Ov:f,r,s|...>
//
// Returns false if the line is not a status report at all. Unrecognized
// fields inside a valid report are skipped.
func ParseStatus(report string) (MachineStatus, bool) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(report), "<")
	if !ok {
		return MachineStatus{}, false
	}
	inner, ok = strings.CutSuffix(inner, ">")
	if !ok {
		return MachineStatus{}, false
	}

	status := DefaultStatus()
	parts := strings.Split(inner, "|")
	status.State = ParseMachineState(parts[0])

	for _, part := range parts[1:] {
		key, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		switch key {
		case "MPos":
			if p, ok := parsePosition(value); ok {
				status.MachinePos = p
			}
		case "WPos":
			if p, ok := parsePosition(value); ok {
				status.WorkPos = &p
			}
		case "WCO":
			if p, ok := parsePosition(value); ok {
				status.WorkOffset = &p
			}
		case "FS":
			vals := strings.Split(value, ",")
			if len(vals) > 0 {
				if f, err := strconv.ParseFloat(vals[0], 64); err == nil {
					status.FeedRate = &f
				}
			}
			if len(vals) > 1 {
				if s, err := strconv.ParseFloat(vals[1], 64); err == nil {
					status.SpindleSpeed = &s
				}
			}
		case "F":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				status.FeedRate = &f
			}
		case "Ov":
			vals := strings.Split(value, ",")
			if len(vals) >= 3 {
				f, errF := strconv.Atoi(vals[0])
				r, errR := strconv.Atoi(vals[1])
				s, errS := strconv.Atoi(vals[2])
				if errF == nil && errR == nil && errS == nil {
					status.Overrides = &Overrides{Feed: f, Rapid: r, Spindle: s}
				}
			}
		case "Pn":
			pins := value
			status.InputPins = &pins
		case "A":
			acc := Accessories{
				SpindleCW:    strings.ContainsRune(value, 'S'),
				SpindleCCW:   strings.ContainsRune(value, 'C'),
				FloodCoolant: strings.ContainsRune(value, 'F'),
				MistCoolant:  strings.ContainsRune(value, 'M'),
			}
			status.Accessories = &acc
		case "Bf":
			vals := strings.Split(value, ",")
			if len(vals) >= 2 {
				p, errP := strconv.Atoi(vals[0])
				r, errR := strconv.Atoi(vals[1])
				if errP == nil && errR == nil {
					status.Buffer = &BufferState{PlannerAvail: p, RxAvail: r}
				}
			}
		case "Ln":
			if n, err := strconv.Atoi(value); err == nil {
				status.LineNumber = &n
			}
		}
	}

	// Reports carry either WPos or WCO depending on firmware settings;
	// derive the missing work position when the offset is known.
	if status.WorkPos == nil && status.WorkOffset != nil {
		wp := Position{
			X: status.MachinePos.X - status.WorkOffset.X,
			Y: status.MachinePos.Y - status.WorkOffset.Y,
			Z: status.MachinePos.Z - status.WorkOffset.Z,
		}
		status.WorkPos = &wp
	}

	return status, true
}
