// internal/hw/gpio/gpio.go
package gpio

import (
	"errors"
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// Config maps the eight feedback lines and eight coil lines onto BCM pins.
type Config struct {
	InputPins  [8]uint8
	OutputPins [8]uint8

	// Inputs are pulled up; an inverted input reads true when pulled low.
	InvertInputs  bool
	InvertOutputs bool
}

// chip is the pin access used by IO.
type chip interface {
	Open() error
	Close() error
	Input(pin uint8)
	Output(pin uint8)
	PullUp(pin uint8)
	Read(pin uint8) bool
	Write(pin uint8, high bool)
}

// rpioChip drives /dev/gpiomem through go-rpio.
type rpioChip struct{}

func (rpioChip) Open() error      { return rpio.Open() }
func (rpioChip) Close() error     { return rpio.Close() }
func (rpioChip) Input(pin uint8)  { rpio.Pin(pin).Input() }
func (rpioChip) Output(pin uint8) { rpio.Pin(pin).Output() }
func (rpioChip) PullUp(pin uint8) { rpio.Pin(pin).PullUp() }

func (rpioChip) Read(pin uint8) bool {
	return rpio.Pin(pin).Read() == rpio.High
}

func (rpioChip) Write(pin uint8, high bool) {
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
}

// IO drives feedback and coil lines on the Raspberry Pi header.
type IO struct {
	chip chip
	cfg  Config
}

// Open maps the GPIO memory and configures every pin.
func Open(cfg Config) (*IO, error) {
	return open(rpioChip{}, cfg)
}

func open(c chip, cfg Config) (*IO, error) {
	if err := checkPins(cfg); err != nil {
		return nil, err
	}
	if err := c.Open(); err != nil {
		return nil, fmt.Errorf("hw gpio: open: %w", err)
	}

	for _, p := range cfg.InputPins {
		c.Input(p)
		c.PullUp(p)
	}
	for _, p := range cfg.OutputPins {
		c.Output(p)
	}

	return &IO{chip: c, cfg: cfg}, nil
}

func checkPins(cfg Config) error {
	seen := make(map[uint8]bool, 16)
	for _, p := range append(cfg.InputPins[:], cfg.OutputPins[:]...) {
		if p > 27 {
			return fmt.Errorf("hw gpio: pin %d is not on the header", p)
		}
		if seen[p] {
			return fmt.Errorf("hw gpio: pin %d used twice", p)
		}
		seen[p] = true
	}
	return nil
}

// ReadInputs samples the feedback lines, bit i = channel i.
func (g *IO) ReadInputs() (uint8, error) {
	if g.chip == nil {
		return 0, errors.New("hw gpio: closed")
	}
	var b uint8
	for i, p := range g.cfg.InputPins {
		if g.chip.Read(p) != g.cfg.InvertInputs {
			b |= 1 << i
		}
	}
	return b, nil
}

// WriteOutputs drives the coil lines, bit i = pin i.
func (g *IO) WriteOutputs(image uint8) error {
	if g.chip == nil {
		return errors.New("hw gpio: closed")
	}
	for i, p := range g.cfg.OutputPins {
		on := image&(1<<i) != 0
		g.chip.Write(p, on != g.cfg.InvertOutputs)
	}
	return nil
}

// Close switches every coil off and unmaps the GPIO memory.
func (g *IO) Close() error {
	if g.chip == nil {
		return nil
	}
	_ = g.WriteOutputs(0)
	err := g.chip.Close()
	g.chip = nil
	return err
}
