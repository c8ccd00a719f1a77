// internal/config/config.go
package config

type Config struct {
	Decoder  DecoderConfig  `yaml:"decoder"`
	Hardware HardwareConfig `yaml:"hardware"`
	RSBus    RSBusConfig    `yaml:"rsbus"`
	MQTT     *MQTTConfig    `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ---- DECODER ----

type DecoderConfig struct {
	TickMs        int `yaml:"tick_ms"`
	CommandBuffer int `yaml:"command_buffer"`

	// CV overrides on top of the factory defaults, CV number -> value.
	CVs map[int]int `yaml:"cvs"`
}

// ---- HARDWARE ----

const (
	DriverSim    = "sim"
	DriverModbus = "modbus"
	DriverGPIO   = "gpio"
	DriverSerial = "serial"
	DriverNone   = "none"
)

type HardwareConfig struct {
	Driver string        `yaml:"driver"`
	Modbus *ModbusConfig `yaml:"modbus"`
	GPIO   *GPIOConfig   `yaml:"gpio"`
}

type ModbusConfig struct {
	Transport string `yaml:"transport"` // tcp | rtu
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Baud      int    `yaml:"baud"`

	InputAddress uint16 `yaml:"input_address"`
	CoilAddress  uint16 `yaml:"coil_address"`
}

type GPIOConfig struct {
	InputPins     []uint8 `yaml:"input_pins"`
	OutputPins    []uint8 `yaml:"output_pins"`
	InvertInputs  bool    `yaml:"invert_inputs"`
	InvertOutputs bool    `yaml:"invert_outputs"`
}

// ---- RS-BUS ----

type RSBusConfig struct {
	Driver    string `yaml:"driver"` // sim | serial | none
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- MQTT (optional) ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
