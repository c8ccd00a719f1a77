// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultTickMs        = 20
	DefaultCommandBuffer = 16

	DefaultModbusTimeoutMs = 500
	DefaultModbusBaud      = 19200

	DefaultRSBusBaud      = 115200
	DefaultRSBusTimeoutMs = 100

	DefaultClientID    = "accessory-decoder"
	DefaultTopicPrefix = "decoder"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// DECODER
	// ------------------------------------------------------------

	if cfg.Decoder.TickMs == 0 {
		cfg.Decoder.TickMs = DefaultTickMs
	}
	if cfg.Decoder.CommandBuffer == 0 {
		cfg.Decoder.CommandBuffer = DefaultCommandBuffer
	}

	// ------------------------------------------------------------
	// HARDWARE
	// ------------------------------------------------------------

	if cfg.Hardware.Driver == "" {
		cfg.Hardware.Driver = DriverSim
	}
	if m := cfg.Hardware.Modbus; m != nil {
		if m.Transport == "" {
			m.Transport = "tcp"
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultModbusTimeoutMs
		}
		if m.Transport == "rtu" && m.Baud == 0 {
			m.Baud = DefaultModbusBaud
		}
	}

	// ------------------------------------------------------------
	// RS-BUS
	// ------------------------------------------------------------

	if cfg.RSBus.Driver == "" {
		cfg.RSBus.Driver = DriverSim
	}
	if cfg.RSBus.Baud == 0 {
		cfg.RSBus.Baud = DefaultRSBusBaud
	}
	if cfg.RSBus.TimeoutMs == 0 {
		cfg.RSBus.TimeoutMs = DefaultRSBusTimeoutMs
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.MQTT; m != nil {
		if m.ClientID == "" {
			m.ClientID = DefaultClientID
		}
		if m.TopicPrefix == "" {
			m.TopicPrefix = DefaultTopicPrefix
		}
		m.TopicPrefix = strings.TrimSuffix(m.TopicPrefix, "/")
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// CVOverrides converts the configured CV overrides for cv.NewStore.
// Values are validated bytes.
func (d DecoderConfig) CVOverrides() map[int]byte {
	out := make(map[int]byte, len(d.CVs))
	for n, v := range d.CVs {
		out[n] = byte(v)
	}
	return out
}
