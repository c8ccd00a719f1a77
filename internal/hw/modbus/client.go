// internal/hw/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Transports.
const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

// lineCount is the number of discrete inputs and coils used on the module.
const lineCount = 8

// Config selects the remote IO module and the register geometry.
type Config struct {
	Transport string
	Endpoint  string // host:port for tcp, device path for rtu
	UnitID    uint8
	Timeout   time.Duration

	// RTU only.
	Baud int

	// First discrete input wired to feedback channel 0.
	InputAddress uint16
	// First coil wired to output pin 0.
	CoilAddress uint16
}

// busClient is the subset of modbus.Client used here.
type busClient interface {
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
	WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error)
}

// IO is a Modbus remote IO module: eight discrete inputs carry the feedback
// lines, eight coils drive the switch coils.
// Requests are serialized; a module handles one transaction at a time.
type IO struct {
	mu     sync.Mutex
	client busClient
	closer io.Closer

	inputAddr uint16
	coilAddr  uint16
}

// Open connects to the module.
func Open(cfg Config) (*IO, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("hw modbus: endpoint required")
	}

	switch cfg.Transport {
	case TransportTCP, "":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("hw modbus: connect %s: %w", cfg.Endpoint, err)
		}
		return newIO(modbus.NewClient(h), h, cfg), nil

	case TransportRTU:
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.BaudRate = cfg.Baud
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("hw modbus: open %s: %w", cfg.Endpoint, err)
		}
		return newIO(modbus.NewClient(h), h, cfg), nil

	default:
		return nil, fmt.Errorf("hw modbus: unknown transport %q", cfg.Transport)
	}
}

func newIO(c busClient, closer io.Closer, cfg Config) *IO {
	return &IO{
		client:    c,
		closer:    closer,
		inputAddr: cfg.InputAddress,
		coilAddr:  cfg.CoilAddress,
	}
}

// ReadInputs reads the eight feedback inputs (FC 2).
func (m *IO) ReadInputs() (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.client.ReadDiscreteInputs(m.inputAddr, lineCount)
	if err != nil {
		return 0, fmt.Errorf("hw modbus: read inputs: %w", err)
	}
	if len(res) < 1 {
		return 0, errors.New("hw modbus: short read-inputs payload")
	}
	return res[0], nil
}

// WriteOutputs writes the coil image (FC 15).
func (m *IO) WriteOutputs(image uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.WriteMultipleCoils(m.coilAddr, lineCount, []byte{image}); err != nil {
		return fmt.Errorf("hw modbus: write coils: %w", err)
	}
	return nil
}

// Close releases the transport.
func (m *IO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
