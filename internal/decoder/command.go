// internal/decoder/command.go
package decoder

import (
	"fmt"

	"github.com/tamzrod/accessory-decoder/internal/actuator"
)

// Kind identifies a command.
type Kind uint8

const (
	// KindAccessory switches one device of the addressed decoder.
	KindAccessory Kind = iota + 1
	// KindProgram writes one CV.
	KindProgram
	// KindReaddress makes the decoder answer to a new decoder address.
	KindReaddress
)

func (k Kind) String() string {
	switch k {
	case KindAccessory:
		return "accessory"
	case KindProgram:
		return "program"
	case KindReaddress:
		return "readdress"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Command is one pre-decoded command from the track or a supervisor.
type Command struct {
	Kind Kind

	// Accessory: decoder address, device 0..3, gate and activate flag.
	// Readdress: the new decoder address.
	Address  uint16
	Device   int
	Gate     actuator.Gate
	Activate bool

	// Program: CV number and value. Loco selects programming on the main
	// (must match the decoder's loco address); 0 is service mode.
	CV    int
	Value byte
	Loco  uint16
}
