// internal/rsbus/telegram_test.go
package rsbus

import (
	"math/bits"
	"testing"
)

func TestEncodeNibble(t *testing.T) {
	tests := []struct {
		name   string
		pos    []bool
		half   Half
		mirror bool
		want   byte
	}{
		{"PairNone", []bool{false, false}, LowHalf, true, 0b0_0000},
		{"PairFirst", []bool{true, false}, LowHalf, true, 0b0_1010},
		{"PairSecond", []bool{false, true}, HighHalf, true, 0b1_0101},
		{"PairBoth", []bool{true, true}, LowHalf, true, 0b0_1111},
		{"PairFirstUnmirrored", []bool{true, false}, LowHalf, false, 0b0_0010},
		{"PairBothUnmirrored", []bool{true, true}, HighHalf, false, 0b1_0011},
		{"QuadFirst", []bool{true, false, false, false}, LowHalf, true, 0b0_0010},
		{"QuadSecond", []bool{false, true, false, false}, LowHalf, true, 0b0_0001},
		{"QuadThird", []bool{false, false, true, false}, HighHalf, false, 0b1_1000},
		{"QuadFourth", []bool{false, false, false, true}, HighHalf, true, 0b1_0100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeNibble(tt.pos, tt.half, tt.mirror); got != tt.want {
				t.Fatalf("got=%05b want=%05b", got, tt.want)
			}
		})
	}
}

func TestFrame_EvenParityAndType(t *testing.T) {
	for n := byte(0); n <= NibbleMask; n++ {
		tg := Telegram{Address: 1, Nibble: n}
		f := tg.Frame()

		if bits.OnesCount8(f)%2 != 0 {
			t.Fatalf("nibble %05b: frame 0x%02x has odd parity", n, f)
		}
		if f&NibbleMask != n {
			t.Fatalf("nibble %05b: frame 0x%02x lost data", n, f)
		}
		if tt := f >> BitType0 & 0b11; tt != TypeFeedbackDecoder {
			t.Fatalf("nibble %05b: type %02b", n, tt)
		}

		got, err := ParseFrame(f)
		if err != nil {
			t.Fatalf("ParseFrame(0x%02x) err=%v", f, err)
		}
		if got != n {
			t.Fatalf("ParseFrame(0x%02x) got=%05b want=%05b", f, got, n)
		}
	}
}

func TestParseFrame_RejectsBadParity(t *testing.T) {
	f := Telegram{Nibble: 0b0_0001}.Frame()
	if _, err := ParseFrame(f ^ 0x01); err == nil {
		t.Fatalf("expected parity error")
	}
}

func TestTelegram_HalfAndData(t *testing.T) {
	tg := Telegram{Address: 9, Nibble: 0b1_0110}
	if tg.Half() != HighHalf {
		t.Fatalf("half got=%d want=1", tg.Half())
	}
	if tg.Data() != 0b0110 {
		t.Fatalf("data got=%04b want=0110", tg.Data())
	}
}
