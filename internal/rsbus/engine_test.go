// internal/rsbus/engine_test.go
package rsbus

import (
	"testing"

	"github.com/tamzrod/accessory-decoder/internal/feedback"
)

// ---- fake transmitter ----

type fakeTx struct {
	active bool
	busy   bool
	sent   []Telegram
}

func (f *fakeTx) Active() bool { return f.active }

func (f *fakeTx) Transmit(t Telegram) bool {
	if f.busy {
		return false
	}
	f.sent = append(f.sent, t)
	return true
}

func settle(s *feedback.Sampler, raw feedback.Sample) {
	for i := 0; i < feedback.Window; i++ {
		s.Tick(raw)
	}
}

func newEngine(t *testing.T, addr uint8, split bool, retransmits uint8) (*Engine, *feedback.Sampler, *fakeTx) {
	t.Helper()
	s := feedback.NewSampler(retransmits)
	tx := &fakeTx{active: true}
	e, err := NewEngine(Config{Address: addr, Split: split}, s, tx)
	if err != nil {
		t.Fatalf("NewEngine err=%v", err)
	}
	return e, s, tx
}

// connect drives the engine through its announcement.
func connect(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < e.announceLen(); i++ {
		e.TrySend()
	}
	if e.State() != Connected {
		t.Fatalf("state %v after announcement, want connected", e.State())
	}
}

// ---- tests ----

func TestNewEngine_RejectsUnsetAddress(t *testing.T) {
	s := feedback.NewSampler(0)
	if _, err := NewEngine(Config{Address: 0}, s, &fakeTx{}); err == nil {
		t.Fatalf("expected error for address 0")
	}
	if _, err := NewEngine(Config{Address: 129}, s, &fakeTx{}); err == nil {
		t.Fatalf("expected error for address 129")
	}
}

func TestJoin_WaitsForBusActive(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	tx.active = false
	settle(s, feedback.Sample{})

	for i := 0; i < 5; i++ {
		e.TrySend()
	}
	if e.State() != Disconnected || len(tx.sent) != 0 {
		t.Fatalf("joined while bus inactive: state=%v sent=%d", e.State(), len(tx.sent))
	}
}

func TestJoin_WaitsForAllChannelsStable(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})
	s.Tick(feedback.Sample{7: true}) // channel 7 just moved

	e.TrySend()
	if e.State() != Disconnected || len(tx.sent) != 0 {
		t.Fatalf("joined with unstable channel: state=%v sent=%d", e.State(), len(tx.sent))
	}
}

func TestJoin_SplitSendsEveryGroup(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{true, false, false, true, false, false, true, true})

	connect(t, e)

	// pairs are not mirrored into DATA_3/DATA_2 while joining
	want := []Telegram{
		{Address: 10, Nibble: 0b0_0010},
		{Address: 10, Nibble: 0b1_0001},
		{Address: 11, Nibble: 0b0_0000},
		{Address: 11, Nibble: 0b1_0011},
	}
	if len(tx.sent) != len(want) {
		t.Fatalf("announcement sent %d telegrams, want %d", len(tx.sent), len(want))
	}
	for i := range want {
		if tx.sent[i] != want[i] {
			t.Fatalf("telegram %d: got %v want %v", i, tx.sent[i], want[i])
		}
	}
	if s.Changed(feedback.All) {
		t.Fatalf("changes left after announcement")
	}
}

func TestJoin_SharedAddressSendsTwoHalves(t *testing.T) {
	e, s, tx := newEngine(t, 3, false, 0)
	settle(s, feedback.Sample{true, false, true, false, false, true, false, true})

	connect(t, e)

	want := []Telegram{
		{Address: 3, Nibble: 0b0_1010},
		{Address: 3, Nibble: 0b1_0101},
	}
	if len(tx.sent) != 2 || tx.sent[0] != want[0] || tx.sent[1] != want[1] {
		t.Fatalf("announcement got %v want %v", tx.sent, want)
	}
}

func TestJoin_UnchangedGroupsStillAnnounced(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})

	if s.Changed(feedback.All) {
		t.Fatalf("precondition: no pending change")
	}
	connect(t, e)
	if len(tx.sent) != 4 {
		t.Fatalf("sent %d telegrams, want 4", len(tx.sent))
	}
}

func TestJoin_BusyTransmitterDefersWithoutBlocking(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})

	e.TrySend()
	if len(tx.sent) != 1 || e.State() != Announcing {
		t.Fatalf("first slot: sent=%d state=%v", len(tx.sent), e.State())
	}

	tx.busy = true
	for i := 0; i < 3; i++ {
		if res := e.TrySend(); res.Sent {
			t.Fatalf("sent while busy")
		}
	}
	if e.State() != Announcing {
		t.Fatalf("state %v while announcement pending", e.State())
	}

	tx.busy = false
	for i := 0; i < 3; i++ {
		e.TrySend()
	}
	if e.State() != Connected || len(tx.sent) != 4 {
		t.Fatalf("state=%v sent=%d, want connected/4", e.State(), len(tx.sent))
	}
	for i, tg := range tx.sent {
		if tg != zeroAnnouncement(i) {
			t.Fatalf("telegram %d out of order: %v", i, tg)
		}
	}
}

// zeroAnnouncement returns split announcement telegram i for address 10
// with every input low.
func zeroAnnouncement(i int) Telegram {
	return Telegram{Address: 10 + uint8(i/2), Nibble: byte(i%2) << BitNibble}
}

func TestJoin_OncePerActivePeriod(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})
	connect(t, e)

	for i := 0; i < 20; i++ {
		s.Tick(feedback.Sample{})
		e.TrySend()
	}
	if len(tx.sent) != 4 {
		t.Fatalf("re-announced while connected: sent=%d", len(tx.sent))
	}

	tx.active = false
	e.TrySend()
	if e.State() != Disconnected {
		t.Fatalf("state %v after bus loss", e.State())
	}

	tx.active = true
	connect(t, e)
	if len(tx.sent) != 8 {
		t.Fatalf("second active period sent %d telegrams in total, want 8", len(tx.sent))
	}
}

func TestConnected_OneTelegramPerCall(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})
	connect(t, e)
	tx.sent = nil

	// every group changes at once
	settle(s, feedback.Sample{true, false, true, false, true, false, true, false})

	for call := 0; call < 4; call++ {
		res := e.TrySend()
		if !res.Sent {
			t.Fatalf("call %d: nothing sent", call)
		}
		if len(tx.sent) != call+1 {
			t.Fatalf("call %d: %d telegrams sent", call, len(tx.sent))
		}
	}
	if res := e.TrySend(); res.Sent {
		t.Fatalf("sent with nothing changed: %v", res.Telegram)
	}

	// priority order: {0,1} {2,3} {4,5} {6,7}
	for i, tg := range tx.sent {
		wantAddr := uint8(10 + i/2)
		wantHalf := Half(i % 2)
		if tg.Address != wantAddr || tg.Half() != wantHalf {
			t.Fatalf("telegram %d: %v, want addr=%d half=%d", i, tg, wantAddr, wantHalf)
		}
	}
}

func TestConnected_PicksFirstStableChangedGroup(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})
	connect(t, e)
	tx.sent = nil

	// group {0,1} changes but channel 0 keeps bouncing; group {4,5} settles
	for i := 0; i < feedback.Window; i++ {
		s.Tick(feedback.Sample{0: i%2 == 0, 1: true, 4: true})
	}

	res := e.TrySend()
	if !res.Sent || res.Telegram.Address != 11 || res.Telegram.Half() != LowHalf {
		t.Fatalf("expected group {4,5}, got %+v", res)
	}
	if !s.Changed(feedback.Range{First: 0, Last: 1}) {
		t.Fatalf("unsent group {0,1} lost its change")
	}
	if s.Changed(feedback.Range{First: 4, Last: 5}) {
		t.Fatalf("sent group {4,5} still changed")
	}
}

func TestConnected_BusyTransmitterKeepsChange(t *testing.T) {
	e, s, tx := newEngine(t, 10, false, 0)
	settle(s, feedback.Sample{})
	connect(t, e)

	settle(s, feedback.Sample{2: true})
	tx.busy = true
	if res := e.TrySend(); res.Sent {
		t.Fatalf("sent while busy")
	}
	if !s.Changed(feedback.Range{First: 0, Last: 3}) {
		t.Fatalf("change committed while busy")
	}

	tx.busy = false
	res := e.TrySend()
	if !res.Sent || res.Telegram != (Telegram{Address: 10, Nibble: 0b0_1000}) {
		t.Fatalf("got %+v", res)
	}
}

func TestConnected_RetransmitsSameChange(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 2)
	settle(s, feedback.Sample{})
	connect(t, e)
	tx.sent = nil

	settle(s, feedback.Sample{6: true})
	for i := 0; i < 5; i++ {
		s.Tick(feedback.Sample{6: true})
		e.TrySend()
	}

	if len(tx.sent) != 3 {
		t.Fatalf("sent %d telegrams, want 1 + 2 retransmissions", len(tx.sent))
	}
	for _, tg := range tx.sent {
		if tg != (Telegram{Address: 11, Nibble: 0b1_1010}) {
			t.Fatalf("unexpected telegram %v", tg)
		}
	}
}

func TestConnected_TwoChannelsSameTick(t *testing.T) {
	e, s, tx := newEngine(t, 10, true, 0)
	settle(s, feedback.Sample{})
	connect(t, e)
	tx.sent = nil

	settle(s, feedback.Sample{0: true, 1: false})
	for i := 0; i < feedback.Window; i++ {
		s.Tick(feedback.Sample{0: false, 1: true})
	}

	res := e.TrySend()
	if !res.Sent || len(tx.sent) != 1 {
		t.Fatalf("expected exactly one telegram, got %d", len(tx.sent))
	}
	if tx.sent[0] != (Telegram{Address: 10, Nibble: 0b0_0101}) {
		t.Fatalf("telegram got %v", tx.sent[0])
	}
	if s.Changed(feedback.Range{First: 0, Last: 1}) {
		t.Fatalf("changed(0,1) still true after send")
	}
	if e.TrySend().Sent {
		t.Fatalf("second telegram sent")
	}
}

func TestSplit_SecondAddressBeyondRangeIsDropped(t *testing.T) {
	e, s, tx := newEngine(t, MaxAddress, true, 0)
	settle(s, feedback.Sample{})

	var dropped int
	for i := 0; i < 4; i++ {
		if e.TrySend().Dropped {
			dropped++
		}
	}
	if e.State() != Connected {
		t.Fatalf("state %v, want connected", e.State())
	}
	if dropped != 2 || len(tx.sent) != 2 {
		t.Fatalf("dropped=%d sent=%d, want 2/2", dropped, len(tx.sent))
	}
	for _, tg := range tx.sent {
		if tg.Address != MaxAddress {
			t.Fatalf("transmitted to %d", tg.Address)
		}
	}
}
