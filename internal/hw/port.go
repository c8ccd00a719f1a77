// internal/hw/port.go
package hw

// Inputs reads the eight feedback lines, bit i = channel i.
type Inputs interface {
	ReadInputs() (uint8, error)
}

// Outputs drives the eight coil lines, bit i = pin i.
type Outputs interface {
	WriteOutputs(image uint8) error
}

// IO is one hardware backend.
type IO interface {
	Inputs
	Outputs
	Close() error
}

// Port is a shadow register of the coil outputs.
// The actuator sets pins in memory; the runtime flushes the image to the
// backend once per tick. Not safe for concurrent use.
type Port struct {
	image uint8
	dirty bool
}

// NewPort returns a port with every pin off and a pending flush, so the
// first tick forces the hardware into a known state.
func NewPort() *Port {
	return &Port{dirty: true}
}

// Set switches pin 0..7. Out of range pins are ignored.
func (p *Port) Set(pin int, on bool) {
	if pin < 0 || pin > 7 {
		return
	}
	next := p.image &^ (1 << pin)
	if on {
		next |= 1 << pin
	}
	if next != p.image {
		p.image = next
		p.dirty = true
	}
}

// Image returns the current output image.
func (p *Port) Image() uint8 {
	return p.image
}

// Flush writes the image when it changed. On error the image stays dirty
// and is retried on the next call.
func (p *Port) Flush(out Outputs) error {
	if !p.dirty {
		return nil
	}
	if err := out.WriteOutputs(p.image); err != nil {
		return err
	}
	p.dirty = false
	return nil
}

// Invalidate forces the next Flush to write, whatever the image.
// Used when a backend comes back and may have lost its outputs.
func (p *Port) Invalidate() {
	p.dirty = true
}
