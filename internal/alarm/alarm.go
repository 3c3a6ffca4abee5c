// Package alarm holds the actuator contract driven by the drowsiness engine
// and the adapters that forward it to a real device.
package alarm

import (
	"fmt"
	"os"

	"wakie/go-backend/internal/config"
)

// Controller starts and stops a continuous alert. Both calls are idempotent
// and fire-and-forget: failures are the adapter's business.
type Controller interface {
	Start()
	Stop()
}

type Nop struct{}

func (Nop) Start() {}
func (Nop) Stop()  {}

// New picks the adapter configured by ALARM_MODE.
func New(cfg *config.Config) (Controller, error) {
	switch cfg.AlarmMode {
	case "beep":
		return NewBeeper(os.Stdout, cfg.BeepInterval), nil
	case "serial":
		return NewSerialBuzzer(cfg.SerialPort, cfg.SerialBaudRate, cfg.SerialOnCmd, cfg.SerialOffCmd), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown alarm mode %q", cfg.AlarmMode)
	}
}
