// cmd/decoder/backends.go
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/accessory-decoder/internal/config"
	"github.com/tamzrod/accessory-decoder/internal/hw"
	"github.com/tamzrod/accessory-decoder/internal/hw/gpio"
	hwmodbus "github.com/tamzrod/accessory-decoder/internal/hw/modbus"
	"github.com/tamzrod/accessory-decoder/internal/hw/sim"
	"github.com/tamzrod/accessory-decoder/internal/rsbus"
	rsserial "github.com/tamzrod/accessory-decoder/internal/rsbus/serial"
)

// openIO opens the configured hardware backend.
// Fail fast at startup: no retries.
func openIO(c config.HardwareConfig) (hw.IO, error) {
	switch c.Driver {
	case config.DriverModbus:
		m := c.Modbus
		return hwmodbus.Open(hwmodbus.Config{
			Transport:    m.Transport,
			Endpoint:     m.Endpoint,
			UnitID:       m.UnitID,
			Timeout:      time.Duration(m.TimeoutMs) * time.Millisecond,
			Baud:         m.Baud,
			InputAddress: m.InputAddress,
			CoilAddress:  m.CoilAddress,
		})

	case config.DriverGPIO:
		g := c.GPIO
		var gc gpio.Config
		copy(gc.InputPins[:], g.InputPins)
		copy(gc.OutputPins[:], g.OutputPins)
		gc.InvertInputs = g.InvertInputs
		gc.InvertOutputs = g.InvertOutputs
		return gpio.Open(gc)

	case config.DriverSim:
		return sim.NewIO(), nil

	default:
		return nil, fmt.Errorf("hardware: unknown driver %q", c.Driver)
	}
}

// openBus opens the configured RS-bus transmitter. The none driver yields a
// nil transmitter, which is only accepted when feedback is disabled.
func openBus(c config.RSBusConfig, log *slog.Logger) (rsbus.Transmitter, func(), error) {
	switch c.Driver {
	case config.DriverSerial:
		t, err := rsserial.Open(rsserial.Config{
			Port:    c.Port,
			Baud:    c.Baud,
			Timeout: time.Duration(c.TimeoutMs) * time.Millisecond,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return t, func() { _ = t.Close() }, nil

	case config.DriverSim:
		return sim.NewBus(true), func() {}, nil

	case config.DriverNone:
		return nil, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("rsbus: unknown driver %q", c.Driver)
	}
}
