// internal/address/resolve.go
package address

import "github.com/tamzrod/accessory-decoder/internal/cv"

// Mode selects how the two address CVs combine.
type Mode uint8

const (
	Basic Mode = iota
	Extended
)

const (
	// MaxDecoder is the highest valid decoder address.
	MaxDecoder = 511

	// InvalidDecoder marks an unprogrammed or out of range decoder address.
	InvalidDecoder uint16 = 0xFFFF

	// MaxLow is the highest valid value of the address low CV.
	MaxLow = 63

	// MaxFeedback is the highest valid RS-bus address.
	MaxFeedback = 128

	// UnsetFeedback is the RS-bus address of a decoder that has none yet.
	UnsetFeedback uint8 = 0

	// LocoOffset maps a decoder address into the loco address space used for
	// programming on the main.
	LocoOffset = 6000

	// UnreachableLoco is used when no valid loco address exists.
	UnreachableLoco uint16 = LocoOffset - 1
)

// Addresses is the resolved addressing of one decoder.
type Addresses struct {
	Decoder  uint16
	Feedback uint8
	Loco     uint16
}

// DecoderValid reports whether the decoder address can be used.
func (a Addresses) DecoderValid() bool { return a.Decoder != InvalidDecoder }

// FeedbackSet reports whether an RS-bus address has been configured.
func (a Addresses) FeedbackSet() bool { return a.Feedback != UnsetFeedback }

// Resolve derives the operating addresses from the CV block.
// Invalid configuration yields sentinel values, never an error.
func Resolve(r cv.Reader) Addresses {
	mode := Basic
	if r.Get(cv.Config)&cv.ConfigExtendedAddressing != 0 {
		mode = Extended
	}

	dec := Compose(r.Get(cv.AddrLow), r.Get(cv.AddrHigh), mode)

	return Addresses{
		Decoder:  dec,
		Feedback: Feedback(r.Get(cv.FeedbackAddr)),
		Loco:     Loco(dec),
	}
}

// Compose builds the decoder address from the low and high address CVs.
func Compose(low, high byte, mode Mode) uint16 {
	if high&cv.AddrHighUnset != 0 || low > MaxLow {
		return InvalidDecoder
	}

	shift := 6
	if mode == Extended {
		shift = 8
	}

	addr := uint16(high&0x07)<<shift + uint16(low)
	if addr > MaxDecoder {
		return InvalidDecoder
	}
	return addr
}

// Feedback normalizes the RS-bus address CV.
func Feedback(raw byte) uint8 {
	if raw > MaxFeedback {
		return UnsetFeedback
	}
	return raw
}

// Loco returns the programming-on-main loco address for a decoder address.
// Addresses that fall outside LocoOffset..LocoOffset+255 map to UnreachableLoco.
func Loco(decoder uint16) uint16 {
	loco := decoder + LocoOffset // wraps for InvalidDecoder
	if loco < LocoOffset || loco > LocoOffset+255 {
		return UnreachableLoco
	}
	return loco
}

// Split returns the address CV pair (low, high) that selects decoder address
// addr under basic addressing. ok is false for addresses above MaxDecoder.
func Split(addr uint16) (low, high byte, ok bool) {
	if addr > MaxDecoder {
		return 0, 0, false
	}
	return byte(addr & 0x3F), byte((addr >> 6) & 0x07), true
}

// FeedbackFor returns the RS-bus address paired with a decoder address during
// re-addressing. Decoder addresses from 128 up get no feedback address.
func FeedbackFor(addr uint16) uint8 {
	if addr < MaxFeedback {
		return uint8(addr + 1)
	}
	return UnsetFeedback
}
