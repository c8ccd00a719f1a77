// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/accessory-decoder/internal/cv"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DECODER
	// ------------------------------------------------------------

	if cfg.Decoder.TickMs < 0 {
		return fmt.Errorf("decoder: tick_ms must be >= 0, got %d", cfg.Decoder.TickMs)
	}
	if cfg.Decoder.CommandBuffer < 0 {
		return fmt.Errorf("decoder: command_buffer must be >= 0, got %d", cfg.Decoder.CommandBuffer)
	}
	for n, v := range cfg.Decoder.CVs {
		if n < 1 || n > cv.Count {
			return fmt.Errorf("decoder: cvs: CV%d out of range 1..%d", n, cv.Count)
		}
		if v < 0 || v > 0xFF {
			return fmt.Errorf("decoder: cvs: CV%d value %d is not a byte", n, v)
		}
	}

	// ------------------------------------------------------------
	// HARDWARE
	// ------------------------------------------------------------

	switch cfg.Hardware.Driver {
	case "", DriverSim:
	case DriverModbus:
		m := cfg.Hardware.Modbus
		if m == nil {
			return fmt.Errorf("hardware: driver modbus requires a modbus section")
		}
		if m.Endpoint == "" {
			return fmt.Errorf("hardware: modbus endpoint required")
		}
		switch m.Transport {
		case "", "tcp", "rtu":
		default:
			return fmt.Errorf("hardware: modbus transport %q (want tcp or rtu)", m.Transport)
		}
		if m.TimeoutMs < 0 || m.Baud < 0 {
			return fmt.Errorf("hardware: modbus timeout_ms and baud must be >= 0")
		}
	case DriverGPIO:
		g := cfg.Hardware.GPIO
		if g == nil {
			return fmt.Errorf("hardware: driver gpio requires a gpio section")
		}
		if len(g.InputPins) != 8 || len(g.OutputPins) != 8 {
			return fmt.Errorf(
				"hardware: gpio needs 8 input_pins and 8 output_pins, got %d and %d",
				len(g.InputPins),
				len(g.OutputPins),
			)
		}
	default:
		return fmt.Errorf("hardware: unknown driver %q", cfg.Hardware.Driver)
	}

	// ------------------------------------------------------------
	// RS-BUS
	// ------------------------------------------------------------

	switch cfg.RSBus.Driver {
	case "", DriverSim, DriverNone:
	case DriverSerial:
		if cfg.RSBus.Port == "" {
			return fmt.Errorf("rsbus: driver serial requires port")
		}
		if cfg.RSBus.Baud < 0 || cfg.RSBus.TimeoutMs < 0 {
			return fmt.Errorf("rsbus: baud and timeout_ms must be >= 0")
		}
	default:
		return fmt.Errorf("rsbus: unknown driver %q", cfg.RSBus.Driver)
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("mqtt: broker required")
		}
		if m.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0..2, got %d", m.QoS)
		}
		if strings.ContainsAny(m.TopicPrefix, "#+") {
			return fmt.Errorf("mqtt: topic_prefix %q contains a wildcard", m.TopicPrefix)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging: unknown format %q", cfg.Logging.Format)
	}

	return nil
}
