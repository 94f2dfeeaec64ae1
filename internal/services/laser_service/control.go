package laser_service

import (
	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
)

// Control operations delegate to the controller facade. Override and
// preset strings map onto the codec's closed enums; an unknown value
// surfaces as INVALID_STATE from the facade.

func (cm *ConnectionManager) Jog(req models.JogRequest) error {
	return cm.ctrl.Jog(req.X, req.Y, req.Z, req.Feed, req.Incremental)
}

func (cm *ConnectionManager) JogCancel() error {
	return cm.ctrl.JogCancel()
}

func (cm *ConnectionManager) Home() error {
	return cm.ctrl.Home()
}

func (cm *ConnectionManager) Unlock() error {
	return cm.ctrl.Unlock()
}

func (cm *ConnectionManager) FeedHold() error {
	return cm.ctrl.FeedHold()
}

func (cm *ConnectionManager) CycleStart() error {
	return cm.ctrl.CycleStart()
}

func (cm *ConnectionManager) SoftReset() error {
	return cm.ctrl.SoftReset()
}

func (cm *ConnectionManager) FeedOverride(adjust string) error {
	return cm.ctrl.FeedOverride(grbl.OverrideAdjust(adjust))
}

func (cm *ConnectionManager) SpindleOverride(adjust string) error {
	return cm.ctrl.SpindleOverride(grbl.OverrideAdjust(adjust))
}

func (cm *ConnectionManager) RapidOverride(preset string) error {
	return cm.ctrl.RapidOverride(grbl.RapidPreset(preset))
}

func (cm *ConnectionManager) RunFrame(req models.FrameRequest) error {
	bounds := grbl.FrameBounds{
		XMin: req.XMin,
		XMax: req.XMax,
		YMin: req.YMin,
		YMax: req.YMax,
	}
	units := grbl.UnitsMM
	if req.Units != "" {
		units = grbl.Units(req.Units)
	}
	mode := grbl.FrameDynamic
	if req.Mode != "" {
		mode = grbl.FrameMode(req.Mode)
	}
	return cm.ctrl.RunFrame(bounds, req.Feed, req.Power, units, mode)
}

func (cm *ConnectionManager) PollOnce() (grbl.MachineStatus, error) {
	return cm.ctrl.PollOnce()
}

func (cm *ConnectionManager) SafetyDoor() error {
	return cm.ctrl.SafetyDoor()
}

func (cm *ConnectionManager) SpindleStopToggle() error {
	return cm.ctrl.SpindleStopToggle()
}

func (cm *ConnectionManager) CoolantFloodToggle() error {
	return cm.ctrl.CoolantFloodToggle()
}

func (cm *ConnectionManager) CoolantMistToggle() error {
	return cm.ctrl.CoolantMistToggle()
}

func (cm *ConnectionManager) CheckModeToggle() error {
	return cm.ctrl.CheckModeToggle()
}

func (cm *ConnectionManager) Settings() ([]string, error) {
	return cm.ctrl.Settings()
}

func (cm *ConnectionManager) GCodeState() ([]string, error) {
	return cm.ctrl.GCodeState()
}

func (cm *ConnectionManager) BuildInfo() ([]string, error) {
	return cm.ctrl.BuildInfo()
}

func (cm *ConnectionManager) StartupLines() ([]string, error) {
	return cm.ctrl.StartupLines()
}
