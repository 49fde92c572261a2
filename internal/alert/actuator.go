package alert

import (
	"github.com/stianeikeland/go-rpio/v4"

	"snowwatch/internal/logger"
)

// Actuator is a named binary output line. Activation latches: nothing
// deactivates the line automatically, an explicit reset is required.
type Actuator interface {
	Activate(pin int) error
	Deactivate(pin int) error
}

// GPIOActuator drives a Raspberry Pi GPIO pin.
type GPIOActuator struct {
	logger *logger.Logger
}

// NoopActuator is used where no GPIO hardware is present.
type NoopActuator struct{}

func (NoopActuator) Activate(pin int) error   { return nil }
func (NoopActuator) Deactivate(pin int) error { return nil }

// NewActuator opens the GPIO memory range and returns a GPIOActuator, or a
// NoopActuator when the hardware is absent.
func NewActuator(logger *logger.Logger) Actuator {
	if err := rpio.Open(); err != nil {
		logger.Warning("GPIO unavailable (%v), actuation is a no-op", err)
		return NoopActuator{}
	}
	return &GPIOActuator{logger: logger}
}

func (a *GPIOActuator) Activate(pin int) error {
	p := rpio.Pin(pin)
	p.Output()
	p.High()
	return nil
}

func (a *GPIOActuator) Deactivate(pin int) error {
	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	return nil
}
