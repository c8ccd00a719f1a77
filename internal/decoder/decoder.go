// internal/decoder/decoder.go
package decoder

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/tamzrod/accessory-decoder/internal/actuator"
	"github.com/tamzrod/accessory-decoder/internal/address"
	"github.com/tamzrod/accessory-decoder/internal/cv"
	"github.com/tamzrod/accessory-decoder/internal/feedback"
	"github.com/tamzrod/accessory-decoder/internal/hw"
	"github.com/tamzrod/accessory-decoder/internal/rsbus"
	"github.com/tamzrod/accessory-decoder/internal/status"
)

// Config wires a decoder to its CV block and hardware.
type Config struct {
	Store *cv.Store
	IO    hw.IO
	// Bus may be nil for relay boards or when feedback is switched off.
	Bus rsbus.Transmitter
	Log *slog.Logger

	// CommandBuffer is the capacity of the command queue.
	CommandBuffer int

	// OnStatus is called from the owner goroutine whenever the snapshot
	// changes. It must not block.
	OnStatus func(status.Snapshot)
}

// Decoder owns the actuator, sampler and protocol engine.
// Tick and Handle must be called from one goroutine (Run does this);
// Push and Snapshot are safe from any goroutine.
type Decoder struct {
	store    *cv.Store
	io       hw.IO
	bus      rsbus.Transmitter
	log      *slog.Logger
	onStatus func(status.Snapshot)

	cmds chan Command
	core *core

	ioFailing bool
	telegrams uint64
	restarts  uint32

	last atomic.Pointer[status.Snapshot]
}

// New builds the decoder from the CV block. All coils start released.
func New(cfg Config) (*Decoder, error) {
	if cfg.Store == nil {
		return nil, errors.New("decoder: cv store required")
	}
	if cfg.IO == nil {
		return nil, errors.New("decoder: io backend required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.CommandBuffer <= 0 {
		return nil, errors.New("decoder: command buffer must be > 0")
	}

	c, err := build(cfg.Store, cfg.Bus)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		store:    cfg.Store,
		io:       cfg.IO,
		bus:      cfg.Bus,
		log:      cfg.Log,
		onStatus: cfg.OnStatus,
		cmds:     make(chan Command, cfg.CommandBuffer),
		core:     c,
	}
	d.logStart()
	d.publish()
	return d, nil
}

// Push queues a command for the owner goroutine.
// It never blocks; false means the queue was full and cmd was dropped.
func (d *Decoder) Push(cmd Command) bool {
	select {
	case d.cmds <- cmd:
		return true
	default:
		d.log.Warn("command queue full, dropped", "kind", cmd.Kind.String())
		return false
	}
}

// Snapshot returns the last published status.
func (d *Decoder) Snapshot() status.Snapshot {
	if s := d.last.Load(); s != nil {
		return *s
	}
	return status.Snapshot{Health: status.HealthUnknown}
}

// Addresses returns the resolved addressing of the running core.
// Owner goroutine only.
func (d *Decoder) Addresses() address.Addresses {
	return d.core.addrs
}

// Tick runs one period: sample inputs, expire coils, debounce, try one
// telegram, then write the outputs.
func (d *Decoder) Tick() {
	c := d.core

	raw, readErr := d.io.ReadInputs()

	c.act.Tick()

	if c.sampler != nil && readErr == nil {
		c.sampler.Tick(feedback.SampleFromByte(raw))
		if res := c.engine.TrySend(); res.Sent {
			d.telegrams++
			d.log.Debug("feedback sent", "telegram", res.Telegram.String(), "state", res.State.String())
		} else if res.Dropped {
			d.log.Debug("feedback dropped", "telegram", res.Telegram.String())
		}
	}

	flushErr := c.port.Flush(d.io)

	d.trackIO(errors.Join(readErr, flushErr))
	d.publish()
}

// Handle applies one command.
func (d *Decoder) Handle(cmd Command) {
	switch cmd.Kind {
	case KindAccessory:
		d.handleAccessory(cmd)
	case KindProgram:
		d.handleProgram(cmd)
	case KindReaddress:
		d.handleReaddress(cmd)
	default:
		d.log.Warn("unknown command", "kind", cmd.Kind.String())
	}

	// coils follow the command at once, not on the next tick
	if err := d.core.port.Flush(d.io); err != nil {
		d.trackIO(err)
	}
	d.publish()
}

func (d *Decoder) handleAccessory(cmd Command) {
	c := d.core
	if !c.addrs.DecoderValid() || cmd.Address != c.addrs.Decoder {
		return
	}
	if cmd.Device < 0 || cmd.Device >= actuator.NumDevices {
		d.log.Warn("accessory device out of range", "device", cmd.Device)
		return
	}
	// coils are released by their hold timer
	if !cmd.Activate {
		return
	}

	prev := c.act.Device(cmd.Device).Position
	if !c.act.Activate(cmd.Device, cmd.Gate) {
		return
	}
	d.log.Debug("device switched", "device", cmd.Device, "gate", cmd.Gate.String())

	// A re-asserted position produces no edge on the end switches;
	// report it again anyway.
	if c.sampler != nil && c.act.Device(cmd.Device).Position == prev {
		c.sampler.Rearm(feedback.DeviceRange(cmd.Device))
	}
}

func (d *Decoder) handleProgram(cmd Command) {
	if cmd.Loco != 0 && cmd.Loco != d.core.addrs.Loco {
		return
	}
	if err := d.store.Set(cmd.CV, cmd.Value); err != nil {
		d.log.Warn("cv write rejected", "cv", cmd.CV, "value", cmd.Value, "err", err)
		return
	}
	d.log.Info("cv written", "cv", cmd.CV, "value", cmd.Value)

	if restartRequired(cmd.CV, cmd.Value) {
		d.restart("cv write")
	}
}

func (d *Decoder) handleReaddress(cmd Command) {
	if d.store.Get(cv.Config)&cv.ConfigExtendedAddressing != 0 {
		d.log.Warn("readdress needs basic addressing", "address", cmd.Address)
		return
	}
	low, high, ok := address.Split(cmd.Address)
	if !ok {
		d.log.Warn("readdress out of range", "address", cmd.Address)
		return
	}

	writes := []struct {
		n int
		v byte
	}{
		{cv.AddrLow, low},
		{cv.AddrHigh, high},
		{cv.FeedbackAddr, address.FeedbackFor(cmd.Address)},
	}
	for _, w := range writes {
		if err := d.store.Set(w.n, w.v); err != nil {
			d.log.Error("readdress write failed", "cv", w.n, "err", err)
			return
		}
	}
	d.restart("readdress")
}

// restartRequired reports whether a CV write changes what the core was
// built from in a way that cannot wait for the next power cycle.
func restartRequired(n int, v byte) bool {
	switch n {
	case cv.AddrLow, cv.AddrHigh, cv.FeedbackAddr:
		return true
	case cv.Restart:
		return v != 0
	case cv.VendorID:
		return v == cv.VendorResetCode
	}
	return false
}

// restart rebuilds the core from the CV block. Devices return to Unknown
// and every coil is released on the next flush. A CV block that cannot be
// built keeps the running core.
func (d *Decoder) restart(reason string) {
	c, err := build(d.store, d.bus)
	if err != nil {
		d.log.Error("restart failed, keeping running configuration", "reason", reason, "err", err)
		return
	}
	d.core = c
	d.restarts++
	d.log.Info("decoder restarted", "reason", reason)
	d.logStart()
}

// Shutdown releases every coil.
func (d *Decoder) Shutdown() error {
	return d.io.WriteOutputs(0)
}

func (d *Decoder) trackIO(err error) {
	switch {
	case err != nil && !d.ioFailing:
		d.ioFailing = true
		d.log.Error("io backend failing", "err", err)
	case err == nil && d.ioFailing:
		d.ioFailing = false
		d.core.port.Invalidate()
		d.log.Info("io backend recovered")
	}
}

func (d *Decoder) logStart() {
	c := d.core
	bus := status.BusOff
	if c.engine != nil {
		bus = c.engine.State().String()
	}
	d.log.Info("decoder ready",
		"type", c.wiring.Name(),
		"decoder_address", c.addrs.Decoder,
		"feedback_address", c.addrs.Feedback,
		"loco_address", c.addrs.Loco,
		"bus", bus,
	)
}

func (d *Decoder) snapshot() status.Snapshot {
	c := d.core
	s := status.Snapshot{
		Health:      c.health,
		DecoderType: c.wiring.Name(),
		Decoder:     c.addrs.Decoder,
		Feedback:    c.addrs.Feedback,
		Loco:        c.addrs.Loco,
		Bus:         status.BusOff,
		Telegrams:   d.telegrams,
		Restarts:    d.restarts,
		Outputs:     c.port.Image(),
	}
	if d.ioFailing {
		s.Health = status.HealthIOError
	}
	if c.engine != nil {
		s.Bus = c.engine.State().String()
		s.Reported = c.sampler.Reported()
	}
	for i := range s.Devices {
		dev := c.act.Device(i)
		s.Devices[i] = status.Device{
			Position:  dev.Position.String(),
			Energized: c.act.Energized(i),
		}
	}
	return s
}

// publish stores the snapshot and notifies OnStatus when it changed.
func (d *Decoder) publish() {
	s := d.snapshot()
	if prev := d.last.Load(); prev != nil && *prev == s {
		return
	}
	d.last.Store(&s)
	if d.onStatus != nil {
		d.onStatus(s)
	}
}
