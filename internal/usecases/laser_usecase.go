package usecases

import (
	"fmt"
	"time"

	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/interfaces"
)

type Usecase struct {
	laserSvc interfaces.LaserService
}

func NewUsecase(laserSvc interfaces.LaserService) interfaces.Usecases {
	return &Usecase{
		laserSvc: laserSvc,
	}
}

func (u *Usecase) ListPorts() ([]grbl.PortInfo, error) {
	return u.laserSvc.ListPorts()
}

func (u *Usecase) BaudRates() []int {
	return u.laserSvc.BaudRates()
}

func (u *Usecase) Connect(req models.ConnectRequest) (*models.ConnectionInfo, error) {
	return u.laserSvc.Connect(req)
}

func (u *Usecase) Disconnect() error {
	return u.laserSvc.Disconnect()
}

func (u *Usecase) IsConnected() bool {
	return u.laserSvc.IsConnected()
}

func (u *Usecase) Snapshot() grbl.Snapshot {
	return u.laserSvc.Snapshot()
}

func (u *Usecase) Jog(req models.JogRequest) error {
	return u.laserSvc.Jog(req)
}

func (u *Usecase) JogCancel() error {
	return u.laserSvc.JogCancel()
}

func (u *Usecase) Home() error {
	return u.laserSvc.Home()
}

func (u *Usecase) Unlock() error {
	return u.laserSvc.Unlock()
}

func (u *Usecase) FeedHold() error {
	return u.laserSvc.FeedHold()
}

func (u *Usecase) CycleStart() error {
	return u.laserSvc.CycleStart()
}

func (u *Usecase) SoftReset() error {
	return u.laserSvc.SoftReset()
}

func (u *Usecase) FeedOverride(adjust string) error {
	return u.laserSvc.FeedOverride(adjust)
}

func (u *Usecase) SpindleOverride(adjust string) error {
	return u.laserSvc.SpindleOverride(adjust)
}

func (u *Usecase) RapidOverride(preset string) error {
	return u.laserSvc.RapidOverride(preset)
}

func (u *Usecase) RunFrame(req models.FrameRequest) error {
	return u.laserSvc.RunFrame(req)
}

func (u *Usecase) PollOnce() (grbl.MachineStatus, error) {
	return u.laserSvc.PollOnce()
}

func (u *Usecase) SafetyDoor() error {
	return u.laserSvc.SafetyDoor()
}

func (u *Usecase) SpindleStopToggle() error {
	return u.laserSvc.SpindleStopToggle()
}

func (u *Usecase) CoolantFloodToggle() error {
	return u.laserSvc.CoolantFloodToggle()
}

func (u *Usecase) CoolantMistToggle() error {
	return u.laserSvc.CoolantMistToggle()
}

func (u *Usecase) CheckModeToggle() error {
	return u.laserSvc.CheckModeToggle()
}

func (u *Usecase) Settings() ([]string, error) {
	return u.laserSvc.Settings()
}

func (u *Usecase) GCodeState() ([]string, error) {
	return u.laserSvc.GCodeState()
}

func (u *Usecase) BuildInfo() ([]string, error) {
	return u.laserSvc.BuildInfo()
}

func (u *Usecase) StartupLines() ([]string, error) {
	return u.laserSvc.StartupLines()
}

func (u *Usecase) StartPolling(interval time.Duration) error {
	if !u.laserSvc.IsConnected() {
		return fmt.Errorf("cannot start polling: no device connected")
	}
	return u.laserSvc.StartPolling(interval)
}

func (u *Usecase) StopPolling() error {
	return u.laserSvc.StopPolling()
}

func (u *Usecase) IsPollingActive() bool {
	return u.laserSvc.IsPollingActive()
}
