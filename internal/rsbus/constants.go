// internal/rsbus/constants.go
package rsbus

// RS-bus feedback byte layout.
// These values define the protocol and MUST NOT be configurable.

// ---- DATA NIBBLE ----

// BitData0 .. BitData3 hold the four feedback bits of a nibble.
const (
	BitData0 = 0
	BitData1 = 1
	BitData2 = 2
	BitData3 = 3
)

// BitNibble selects the low (0) or high (1) half of an address's eight bits.
const BitNibble = 4

// NibbleMask covers the data bits and the nibble select bit.
const NibbleMask byte = 0x1F

// ---- FRAME ----

// BitType0 and BitType1 hold the module type.
const (
	BitType0 = 5
	BitType1 = 6
)

// BitParity makes the number of one bits in the frame even.
const BitParity = 7

// TypeFeedbackDecoder is the module type of a switching decoder with feedback.
const TypeFeedbackDecoder byte = 0b01

// ---- ADDRESSING ----

// MaxAddress is the highest address polled by the master.
const MaxAddress = 128
