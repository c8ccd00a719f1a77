// internal/cv/constants.go
package cv

// Configuration Variable (CV) layout.
// CV numbers are 1-based, matching the numbers used on the command station.
// These values define the decoder's programming interface and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// Count is the number of CVs held by the decoder.
const Count = 34

// ---- ADDRESSING ----

// AddrLow holds the accessory address low bits (valid 0..63).
const AddrLow = 1

// AddrHigh holds the accessory address high bits (bits 0..2).
// Bit 7 set marks the decoder as never addressed.
const AddrHigh = 9

// AddrHighUnset is the AddrHigh bit marking an unprogrammed decoder.
const AddrHighUnset byte = 0x80

// FeedbackAddr holds the RS-bus feedback address (1..128, 0 = not set).
const FeedbackAddr = 10

// Config is the accessory configuration byte (similar to CV29 on loco decoders).
const Config = 29

// ConfigExtendedAddressing is the Config bit selecting extended accessory addressing.
const ConfigExtendedAddressing byte = 1 << 6

// ---- DEVICES ----

// HoldTime1 is the hold time of device 0, in ticks. Devices 1..3 follow at
// HoldTime1+1 .. HoldTime1+3.
const HoldTime1 = 3

// AlwaysActivate, when non-zero, re-pulses a coil even if it is already in the
// requested position.
const AlwaysActivate = 34

// DecoderType selects the device class.
const DecoderType = 27

// TypeSwitch is the DecoderType value of the four-switch decoder.
const TypeSwitch byte = 0x10

// TypeRelays4 is the DecoderType value of the four-relay decoder.
const TypeRelays4 byte = 0x20

// ---- FEEDBACK ----

// Retransmits holds the number of extra RS-bus transmissions per change.
const Retransmits = 20

// SplitFeedback, when non-zero, spreads the feedback over two RS-bus addresses
// (one nibble per switch instead of one nibble per two switches).
const SplitFeedback = 21

// SendFeedback, when zero, disables RS-bus feedback completely.
const SendFeedback = 33

// ---- IDENTIFICATION / MAINTENANCE ----

// Version holds the software version.
const Version = 7

// VendorID holds the vendor ID. Writing VendorResetCode resets all CVs.
const VendorID = 8

// VendorResetCode is the VendorID value that restores factory defaults.
const VendorResetCode byte = 0x0D

// CmdStation selects manufacturer specific address coding (0 standard, 1 Lenz).
const CmdStation = 19

// Search, when set to 1, makes the decoder LED blink.
const Search = 23

// Restart, when written non-zero, restarts the decoder.
const Restart = 25

// DccQuality holds the DCC signal quality counter.
const DccQuality = 26

// VendorID2 holds the second vendor ID.
const VendorID2 = 30

// Defaults are the factory CV values, index 0 = CV1.
var Defaults = [Count]byte{
	0x01,       // 1  AddrLow
	0,          // 2
	15,         // 3  HoldTime1
	15,         // 4  HoldTime2
	15,         // 5  HoldTime3
	15,         // 6  HoldTime4
	0x10,       // 7  Version
	0x0D,       // 8  VendorID
	0x80,       // 9  AddrHigh (unprogrammed)
	0,          // 10 FeedbackAddr
	0, 0, 0, 0, // 11..14
	0, 0, 0, 0, // 15..18
	1,          // 19 CmdStation (Lenz)
	0,          // 20 Retransmits
	1,          // 21 SplitFeedback
	0,          // 22
	0,          // 23 Search
	0,          // 24
	0,          // 25 Restart
	0,          // 26 DccQuality
	TypeSwitch, // 27 DecoderType
	0,          // 28 BiDi
	0x80,       // 29 Config (accessory, basic addressing)
	0x0D,       // 30 VendorID2
	0,          // 31
	0,          // 32
	1,          // 33 SendFeedback
	1,          // 34 AlwaysActivate
}

// writable lists the CVs that may be changed by programming.
// Hold times are read-only; they come from the CV block image.
var writable = map[int]bool{
	AddrLow:        true,
	VendorID:       true,
	AddrHigh:       true,
	FeedbackAddr:   true,
	CmdStation:     true,
	Retransmits:    true,
	SplitFeedback:  true,
	Search:         true,
	Restart:        true,
	DccQuality:     true,
	DecoderType:    true,
	SendFeedback:   true,
	AlwaysActivate: true,
}
