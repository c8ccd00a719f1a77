// internal/rsbus/serial/transmitter.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/accessory-decoder/internal/rsbus"
)

// Adapter link bytes.
// These values define the adapter protocol and MUST NOT be configurable.
const (
	// StatusSent confirms that the adapter has put the last telegram on the bus.
	StatusSent byte = 0x01

	// StatusBus is the marker of a bus-state report; bit 0 is the active flag.
	StatusBus byte = 0x80

	statusBusActive byte = 0x01
)

// Config is the UART setting of the adapter link.
// Timeout is both the read timeout and the deadline for the adapter to
// confirm a telegram.
type Config struct {
	Port    string
	Baud    int
	Timeout time.Duration
}

// Transmitter drives an RS-bus slot adapter over a byte stream.
// It implements rsbus.Transmitter. Active and Transmit never block.
type Transmitter struct {
	rw  io.ReadWriteCloser
	log *slog.Logger

	slot   chan rsbus.Telegram
	busy   atomic.Bool
	active atomic.Bool

	confirm  time.Duration
	handedAt atomic.Int64 // unix nanos of the last slot claim

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open opens the UART and starts the link.
func Open(cfg Config, log *slog.Logger) (*Transmitter, error) {
	if cfg.Port == "" {
		return nil, errors.New("rsbus serial: port required")
	}

	p, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("rsbus serial: open %s: %w", cfg.Port, err)
	}

	return New(p, cfg.Timeout, log), nil
}

// New starts the link on an already open stream.
// A telegram not confirmed within confirm frees the slot; zero waits for
// the adapter forever. The transmitter owns rw and closes it on Close.
func New(rw io.ReadWriteCloser, confirm time.Duration, log *slog.Logger) *Transmitter {
	t := &Transmitter{
		rw:      rw,
		log:     log,
		slot:    make(chan rsbus.Telegram, 1),
		confirm: confirm,
		done:    make(chan struct{}),
	}

	t.wg.Add(2)
	go t.writeLoop()
	go t.readLoop()
	return t
}

// Active reports the last bus state reported by the adapter.
func (t *Transmitter) Active() bool {
	return t.active.Load()
}

// Transmit hands tg to the adapter. It returns false while the previous
// telegram has not been confirmed and its deadline has not passed.
func (t *Transmitter) Transmit(tg rsbus.Telegram) bool {
	if !t.busy.CompareAndSwap(false, true) {
		if !t.overdue() {
			return false
		}
		t.log.Warn("rsbus adapter did not confirm, slot freed", "after", t.confirm)
	}
	t.handedAt.Store(time.Now().UnixNano())
	select {
	case t.slot <- tg:
		return true
	default:
		// writer still holds an unconfirmed telegram
		return false
	}
}

// Close stops the link and closes the stream.
func (t *Transmitter) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.rw.Close()
		t.wg.Wait()
	})
	return err
}

func (t *Transmitter) writeLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		case tg := <-t.slot:
			if _, err := t.rw.Write([]byte{tg.Address, tg.Frame()}); err != nil {
				if t.closed() {
					return
				}
				// the telegram is lost; free the slot so the engine can go on
				t.log.Warn("rsbus adapter write failed", "telegram", tg.String(), "err", err)
				t.busy.Store(false)
			}
		}
	}
}

func (t *Transmitter) readLoop() {
	defer t.wg.Done()

	buf := make([]byte, 1)
	for {
		n, err := t.rw.Read(buf)
		if err != nil {
			if errors.Is(err, serial.ErrTimeout) {
				continue
			}
			if !t.closed() {
				t.log.Error("rsbus adapter read failed", "err", err)
			}
			t.active.Store(false)
			return
		}
		if n == 0 {
			continue
		}
		t.handle(buf[0])
	}
}

func (t *Transmitter) handle(b byte) {
	switch {
	case b == StatusSent:
		t.busy.Store(false)

	case b&StatusBus != 0:
		active := b&statusBusActive != 0
		if t.active.Swap(active) != active {
			t.log.Info("rsbus state", "active", active)
		}
		if !active {
			// an inactive bus never confirms the pending telegram
			t.busy.Store(false)
		}

	default:
		t.log.Warn("rsbus adapter sent unknown status", "byte", fmt.Sprintf("0x%02x", b))
	}
}

// overdue reports whether the pending telegram missed its confirmation deadline.
func (t *Transmitter) overdue() bool {
	if t.confirm <= 0 {
		return false
	}
	return time.Since(time.Unix(0, t.handedAt.Load())) > t.confirm
}

func (t *Transmitter) closed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
