// internal/hw/sim/sim.go
package sim

import (
	"sync"

	"github.com/tamzrod/accessory-decoder/internal/rsbus"
)

// IO is an in-memory hardware backend. Inputs are set by the caller,
// outputs are recorded. Safe for concurrent use.
type IO struct {
	mu      sync.Mutex
	inputs  uint8
	outputs uint8
	writes  int
	closed  bool
}

// NewIO returns a backend with every line low.
func NewIO() *IO {
	return &IO{}
}

// SetInputs replaces the feedback line levels.
func (s *IO) SetInputs(b uint8) {
	s.mu.Lock()
	s.inputs = b
	s.mu.Unlock()
}

// SetInput sets one feedback line.
func (s *IO) SetInput(ch int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.inputs |= 1 << ch
	} else {
		s.inputs &^= 1 << ch
	}
}

func (s *IO) ReadInputs() (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs, nil
}

func (s *IO) WriteOutputs(image uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = image
	s.writes++
	return nil
}

// Outputs returns the last written coil image.
func (s *IO) Outputs() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputs
}

// Writes returns the number of output writes.
func (s *IO) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *IO) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Bus is an RS-bus transmitter that completes every telegram at once.
// It decodes each frame the way the master does and keeps the resulting
// feedback byte per address.
type Bus struct {
	mu       sync.Mutex
	active   bool
	sent     []rsbus.Telegram
	received map[uint8]uint8
	rejected int
}

// NewBus returns a bus in the given state.
func NewBus(active bool) *Bus {
	return &Bus{active: active, received: make(map[uint8]uint8)}
}

// SetActive switches the simulated master polling on or off.
func (b *Bus) SetActive(on bool) {
	b.mu.Lock()
	b.active = on
	b.mu.Unlock()
}

func (b *Bus) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Bus) Transmit(t rsbus.Telegram) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return false
	}
	b.sent = append(b.sent, t)

	nibble, err := rsbus.ParseFrame(t.Frame())
	if err != nil {
		b.rejected++
		return true
	}
	data := nibble & 0x0F
	if nibble>>rsbus.BitNibble&1 == 1 {
		b.received[t.Address] = b.received[t.Address]&0x0F | data<<4
	} else {
		b.received[t.Address] = b.received[t.Address]&0xF0 | data
	}
	return true
}

// Received returns the master's view of address addr: low nibble in bits
// 0..3, high nibble in bits 4..7.
func (b *Bus) Received(addr uint8) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received[addr]
}

// Rejected returns the number of frames that failed the master's checks.
func (b *Bus) Rejected() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejected
}

// Sent returns a copy of every telegram transmitted so far.
func (b *Bus) Sent() []rsbus.Telegram {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]rsbus.Telegram(nil), b.sent...)
}

func (b *Bus) Close() error { return nil }
