package models

// JogRequest moves the given axes. Omitted axes do not move. Incremental
// jogs are relative to the current position, absolute jogs target work
// coordinates.
type JogRequest struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Z           *float64 `json:"z"`
	Feed        float64  `json:"feed" binding:"required,gt=0"` // units/min
	Incremental bool     `json:"incremental"`
}

// OverrideRequest applies one discrete feed or spindle override step.
type OverrideRequest struct {
	Adjust string `json:"adjust" binding:"required"` // reset, coarse_plus, coarse_minus, fine_plus, fine_minus
}

// RapidOverrideRequest selects a rapid override preset.
type RapidOverrideRequest struct {
	Preset string `json:"preset" binding:"required"` // full, half, quarter
}

// FrameRequest traces the perimeter of the given rectangle.
type FrameRequest struct {
	XMin  float64 `json:"x_min"`
	XMax  float64 `json:"x_max"`
	YMin  float64 `json:"y_min"`
	YMax  float64 `json:"y_max"`
	Feed  float64 `json:"feed" binding:"required,gt=0"`
	Power int     `json:"power"`           // S value for the laser modes
	Units string  `json:"units,omitempty"` // mm (default) or inch
	Mode  string  `json:"mode,omitempty"`  // dynamic (default), constant or off
}
