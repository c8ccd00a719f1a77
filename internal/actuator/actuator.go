// internal/actuator/actuator.go
package actuator

// NumDevices is the number of coil pairs on the board.
const NumDevices = 4

// Gate selects one of the two coils of a device.
type Gate uint8

const (
	Green Gate = iota
	Red
)

func (g Gate) String() string {
	if g == Red {
		return "red"
	}
	return "green"
}

// Position is the last gate a device was switched to.
type Position uint8

const (
	Unknown Position = iota
	PositionGreen
	PositionRed
)

func (p Position) String() string {
	switch p {
	case PositionGreen:
		return "green"
	case PositionRed:
		return "red"
	default:
		return "unknown"
	}
}

func positionOf(g Gate) Position {
	if g == Red {
		return PositionRed
	}
	return PositionGreen
}

// Device is the state of one coil pair.
// Remaining > 0 means exactly the coil matching Position is energized.
type Device struct {
	Position  Position
	HoldTicks uint8
	Remaining uint8
}

// Config is the start-up configuration of the actuator.
type Config struct {
	HoldTicks      [NumDevices]uint8
	AlwaysReassert bool
}

// Actuator pulses the coils of four devices and times them out.
// It is not safe for concurrent use; the owner serializes Activate and Tick.
type Actuator struct {
	devices        [NumDevices]Device
	alwaysReassert bool
	wiring         Wiring
	port           Port
}

// New returns an actuator with every device in Unknown position and all
// coils de-energized.
func New(cfg Config, w Wiring, p Port) *Actuator {
	a := &Actuator{
		alwaysReassert: cfg.AlwaysReassert,
		wiring:         w,
		port:           p,
	}
	for i := range a.devices {
		a.devices[i] = Device{Position: Unknown, HoldTicks: cfg.HoldTicks[i]}
		a.release(i)
	}
	return a
}

// Activate switches device to gate g.
// It is a no-op when the device already is in position g, unless always
// re-assert is configured. Returns true when the coils were driven.
func (a *Actuator) Activate(device int, g Gate) bool {
	d := &a.devices[device]
	if d.Position == positionOf(g) && !a.alwaysReassert {
		return false
	}

	a.release(device)
	d.Position = positionOf(g)
	d.Remaining = d.HoldTicks

	// A zero hold time never energizes: nothing would switch it off again.
	if d.Remaining > 0 {
		a.port.Set(a.wiring.Pin(device, g), true)
	}
	return true
}

// Tick advances the coil timers by one period.
func (a *Actuator) Tick() {
	for i := range a.devices {
		d := &a.devices[i]
		if d.Remaining == 0 {
			continue
		}
		d.Remaining--
		if d.Remaining == 0 {
			a.release(i)
		}
	}
}

// Device returns a copy of the state of device i.
func (a *Actuator) Device(i int) Device {
	return a.devices[i]
}

// Energized reports whether any coil of device i is driven.
func (a *Actuator) Energized(i int) bool {
	return a.devices[i].Remaining > 0
}

func (a *Actuator) release(device int) {
	a.port.Set(a.wiring.Pin(device, Green), false)
	a.port.Set(a.wiring.Pin(device, Red), false)
}
