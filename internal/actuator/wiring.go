// internal/actuator/wiring.go
package actuator

// Port is the output capability the actuator drives.
// Pin numbers are 0..7, one pin per coil.
type Port interface {
	Set(pin int, on bool)
}

// Wiring maps a device coil onto an output pin.
// Switch and relay boards connect the same coils to different pins.
type Wiring interface {
	Pin(device int, g Gate) int
	Name() string
}

// SwitchWiring is the four-switch board: device 0 green sits on the highest pin.
type SwitchWiring struct{}

func (SwitchWiring) Pin(device int, g Gate) int { return 7 - (2*device + int(g)) }
func (SwitchWiring) Name() string               { return "switch" }

// RelayWiring is the four-relay board: device 0 red sits on pin 0.
type RelayWiring struct{}

func (RelayWiring) Pin(device int, g Gate) int { return 2*device + 1 - int(g) }
func (RelayWiring) Name() string               { return "relays4" }
