// internal/rsbus/telegram.go
package rsbus

import (
	"fmt"
	"math/bits"
)

// Half selects which nibble of an address a telegram carries.
type Half uint8

const (
	LowHalf Half = iota
	HighHalf
)

// Telegram is one feedback nibble addressed to an RS-bus address.
type Telegram struct {
	Address uint8
	Nibble  byte // data bits 0..3 plus BitNibble
}

// Half returns the half select of the nibble.
func (t Telegram) Half() Half {
	return Half(t.Nibble >> BitNibble & 1)
}

// Data returns the four feedback bits.
func (t Telegram) Data() byte {
	return t.Nibble & 0x0F
}

// Frame returns the wire byte: nibble, module type and even parity.
func (t Telegram) Frame() byte {
	b := t.Nibble&NibbleMask | TypeFeedbackDecoder<<BitType0
	if bits.OnesCount8(b)%2 != 0 {
		b |= 1 << BitParity
	}
	return b
}

func (t Telegram) String() string {
	return fmt.Sprintf("addr=%d half=%d data=%04b", t.Address, t.Half(), t.Data())
}

// ParseFrame checks parity and type of a wire byte and returns its nibble.
func ParseFrame(frame byte) (byte, error) {
	if bits.OnesCount8(frame)%2 != 0 {
		return 0, fmt.Errorf("rsbus: parity error in frame 0x%02x", frame)
	}
	if tt := frame >> BitType0 & 0b11; tt != TypeFeedbackDecoder {
		return 0, fmt.Errorf("rsbus: unexpected module type %02b", tt)
	}
	return frame & NibbleMask, nil
}

// encodeNibble packs up to four positions into a nibble.
// Positions are placed at DATA_1, DATA_0, DATA_3, DATA_2 in that order.
// With mirror set, a pair is repeated into the upper two bits; otherwise
// they stay zero.
func encodeNibble(pos []bool, h Half, mirror bool) byte {
	var n byte
	if len(pos) == 2 && mirror {
		pos = []bool{pos[0], pos[1], pos[0], pos[1]}
	}
	order := [4]int{BitData1, BitData0, BitData3, BitData2}
	for i, p := range pos {
		if p {
			n |= 1 << order[i]
		}
	}
	return n | byte(h)<<BitNibble
}
