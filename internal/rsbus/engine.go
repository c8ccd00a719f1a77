// internal/rsbus/engine.go
package rsbus

import (
	"errors"

	"github.com/tamzrod/accessory-decoder/internal/feedback"
)

// Transmitter is the single-slot RS-bus transmit capability.
type Transmitter interface {
	// Active reports whether the master is polling the bus.
	Active() bool
	// Transmit hands t to the slot. It returns false, and does nothing,
	// while the previous telegram is still being sent.
	Transmit(t Telegram) bool
}

// State is the bus-join state of the engine.
type State uint8

const (
	Disconnected State = iota
	Announcing
	Connected
)

func (s State) String() string {
	switch s {
	case Announcing:
		return "announcing"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config is the start-up configuration of the engine.
type Config struct {
	// Address is the base RS-bus address, 1..MaxAddress.
	Address uint8
	// Split reports every switch in its own nibble, using Address and Address+1.
	Split bool
}

// slot is one telegram position: a channel group and where it is sent.
type slot struct {
	channels feedback.Range
	offset   uint8
	half     Half
}

var (
	splitSlots = []slot{
		{channels: feedback.Range{First: 0, Last: 1}, offset: 0, half: LowHalf},
		{channels: feedback.Range{First: 2, Last: 3}, offset: 0, half: HighHalf},
		{channels: feedback.Range{First: 4, Last: 5}, offset: 1, half: LowHalf},
		{channels: feedback.Range{First: 6, Last: 7}, offset: 1, half: HighHalf},
	}
	sharedSlots = []slot{
		{channels: feedback.Range{First: 0, Last: 3}, offset: 0, half: LowHalf},
		{channels: feedback.Range{First: 4, Last: 7}, offset: 0, half: HighHalf},
	}
)

// Result describes what one TrySend call did.
type Result struct {
	Sent     bool
	Dropped  bool // committed but addressed beyond MaxAddress
	Telegram Telegram
	State    State
}

// Engine multiplexes the sampler's channels into RS-bus telegrams.
// It is not safe for concurrent use; the owner calls TrySend once per tick,
// after the sampler has been ticked.
type Engine struct {
	sampler *feedback.Sampler
	tx      Transmitter
	base    uint8
	slots   []slot

	state        State
	announceNext int
}

// NewEngine creates an engine in Disconnected state.
func NewEngine(cfg Config, s *feedback.Sampler, tx Transmitter) (*Engine, error) {
	if cfg.Address == 0 || cfg.Address > MaxAddress {
		return nil, errors.New("rsbus: address must be 1..128")
	}
	if s == nil || tx == nil {
		return nil, errors.New("rsbus: sampler and transmitter required")
	}

	slots := sharedSlots
	if cfg.Split {
		slots = splitSlots
	}

	return &Engine{
		sampler: s,
		tx:      tx,
		base:    cfg.Address,
		slots:   slots,
		state:   Disconnected,
	}, nil
}

// State returns the current join state.
func (e *Engine) State() State {
	return e.state
}

// announceLen returns the number of telegrams in a full announcement.
func (e *Engine) announceLen() int {
	return len(e.slots)
}

// TrySend performs at most one telegram transmission.
//
// Disconnected: once the bus is active and all channels are stable, the
// announcement starts. Announcing: the next slot is sent unconditionally;
// a busy transmitter defers it to the next call. Connected: the first slot
// that is stable and changed is sent.
func (e *Engine) TrySend() Result {
	if !e.tx.Active() {
		e.state = Disconnected
		e.announceNext = 0
		return Result{State: e.state}
	}

	if e.state == Disconnected {
		if !e.sampler.Stable(feedback.All) {
			return Result{State: e.state}
		}
		e.state = Announcing
		e.announceNext = 0
	}

	if e.state == Announcing {
		res := e.send(e.slots[e.announceNext], false)
		if res.Sent || res.Dropped {
			e.announceNext++
			if e.announceNext == len(e.slots) {
				e.state = Connected
			}
		}
		res.State = e.state
		return res
	}

	for _, sl := range e.slots {
		stable, changed := e.sampler.StabilityAndChange(sl.channels)
		if !stable || !changed {
			continue
		}
		res := e.send(sl, true)
		res.State = e.state
		return res
	}
	return Result{State: e.state}
}

// send builds, transmits and commits the telegram of one slot.
// Nothing is committed when the transmitter is busy.
// Announcement telegrams leave DATA_3 and DATA_2 of a pair zero.
func (e *Engine) send(sl slot, mirror bool) Result {
	t := e.telegram(sl, mirror)

	if int(e.base)+int(sl.offset) > MaxAddress {
		e.sampler.Commit(sl.channels)
		return Result{Dropped: true, Telegram: t}
	}

	if !e.tx.Transmit(t) {
		return Result{Telegram: t}
	}
	e.sampler.Commit(sl.channels)
	return Result{Sent: true, Telegram: t}
}

func (e *Engine) telegram(sl slot, mirror bool) Telegram {
	pos := make([]bool, 0, 4)
	for i := sl.channels.First; i <= sl.channels.Last; i++ {
		pos = append(pos, e.sampler.Channel(i).Pending)
	}
	return Telegram{
		Address: e.base + sl.offset,
		Nibble:  encodeNibble(pos, sl.half, mirror),
	}
}
