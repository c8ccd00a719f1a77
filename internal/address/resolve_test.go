// internal/address/resolve_test.go
package address

import (
	"testing"

	"github.com/tamzrod/accessory-decoder/internal/cv"
)

// cvMap is a minimal cv.Reader for tests.
type cvMap map[int]byte

func (m cvMap) Get(n int) byte { return m[n] }

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		low  byte
		high byte
		mode Mode
		want uint16
	}{
		{"BasicLowOnly", 5, 0, Basic, 5},
		{"BasicHighBits", 10, 3, Basic, 3*64 + 10},
		{"BasicMax", 63, 7, Basic, 511},
		{"HighUpperBitsIgnored", 1, 0x08 | 0x01, Basic, 64 + 1},
		{"UnsetFlag", 5, 0x80, Basic, InvalidDecoder},
		{"UnsetFlagWithBits", 0, 0x83, Basic, InvalidDecoder},
		{"LowOutOfRange", 64, 0, Basic, InvalidDecoder},
		{"ExtendedShift", 10, 1, Extended, 256 + 10},
		{"ExtendedTooLarge", 0, 2, Extended, InvalidDecoder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compose(tt.low, tt.high, tt.mode); got != tt.want {
				t.Fatalf("Compose(%d,0x%02x,%d) got=%d want=%d", tt.low, tt.high, tt.mode, got, tt.want)
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	tests := []struct {
		raw  byte
		want uint8
	}{
		{0, 0},
		{1, 1},
		{128, 128},
		{129, 0},
		{255, 0},
	}

	for _, tt := range tests {
		if got := Feedback(tt.raw); got != tt.want {
			t.Fatalf("Feedback(%d) got=%d want=%d", tt.raw, got, tt.want)
		}
	}
}

func TestLoco(t *testing.T) {
	if got := Loco(0); got != LocoOffset {
		t.Fatalf("Loco(0) got=%d want=%d", got, LocoOffset)
	}
	if got := Loco(255); got != LocoOffset+255 {
		t.Fatalf("Loco(255) got=%d want=%d", got, LocoOffset+255)
	}
	if got := Loco(256); got != UnreachableLoco {
		t.Fatalf("Loco(256) got=%d want=%d", got, UnreachableLoco)
	}
	if got := Loco(InvalidDecoder); got != UnreachableLoco {
		t.Fatalf("Loco(invalid) got=%d want=%d", got, UnreachableLoco)
	}
}

func TestResolve_BasicAddress(t *testing.T) {
	a := Resolve(cvMap{cv.AddrLow: 5, cv.AddrHigh: 0, cv.FeedbackAddr: 6})

	if a.Decoder != 5 {
		t.Fatalf("decoder got=%d want=5", a.Decoder)
	}
	if a.Feedback != 6 {
		t.Fatalf("feedback got=%d want=6", a.Feedback)
	}
	if a.Loco != LocoOffset+5 {
		t.Fatalf("loco got=%d want=%d", a.Loco, LocoOffset+5)
	}
	if !a.DecoderValid() || !a.FeedbackSet() {
		t.Fatalf("expected valid decoder and feedback address")
	}
}

func TestResolve_UnprogrammedIsInvalid(t *testing.T) {
	for low := byte(0); low < 70; low++ {
		a := Resolve(cvMap{cv.AddrLow: low, cv.AddrHigh: 0x80})
		if a.DecoderValid() {
			t.Fatalf("low=%d: expected invalid decoder address, got %d", low, a.Decoder)
		}
		if a.Loco != UnreachableLoco {
			t.Fatalf("low=%d: loco got=%d want=%d", low, a.Loco, UnreachableLoco)
		}
	}
}

func TestResolve_ExtendedModeFromConfigBit(t *testing.T) {
	a := Resolve(cvMap{
		cv.AddrLow:  3,
		cv.AddrHigh: 1,
		cv.Config:   0x80 | cv.ConfigExtendedAddressing,
	})
	if a.Decoder != 259 {
		t.Fatalf("decoder got=%d want=259", a.Decoder)
	}
}

func TestResolve_FactoryDefaults(t *testing.T) {
	s, err := cv.NewStore(nil)
	if err != nil {
		t.Fatalf("NewStore err=%v", err)
	}

	a := Resolve(s)
	if a.DecoderValid() {
		t.Fatalf("factory decoder must be unaddressed, got %d", a.Decoder)
	}
	if a.FeedbackSet() {
		t.Fatalf("factory feedback address must be unset, got %d", a.Feedback)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	for addr := uint16(0); addr <= MaxDecoder; addr++ {
		low, high, ok := Split(addr)
		if !ok {
			t.Fatalf("Split(%d) not ok", addr)
		}
		if got := Compose(low, high, Basic); got != addr {
			t.Fatalf("Compose(Split(%d)) = %d", addr, got)
		}
	}
	if _, _, ok := Split(MaxDecoder + 1); ok {
		t.Fatalf("Split(%d) should fail", MaxDecoder+1)
	}
}

func TestFeedbackFor(t *testing.T) {
	if got := FeedbackFor(0); got != 1 {
		t.Fatalf("FeedbackFor(0) got=%d want=1", got)
	}
	if got := FeedbackFor(127); got != 128 {
		t.Fatalf("FeedbackFor(127) got=%d want=128", got)
	}
	if got := FeedbackFor(128); got != UnsetFeedback {
		t.Fatalf("FeedbackFor(128) got=%d want=0", got)
	}
}
