// internal/feedback/sampler.go
package feedback

const (
	// NumChannels is the number of feedback inputs.
	NumChannels = 8

	// Window is the number of consecutive equal samples that make a channel stable.
	Window = 8
)

// Sample is one reading of all feedback inputs, index = channel.
type Sample [NumChannels]bool

// SampleFromByte unpacks an input port image, bit i = channel i.
func SampleFromByte(b uint8) Sample {
	var s Sample
	for i := range s {
		s[i] = b&(1<<i) != 0
	}
	return s
}

// Range is an inclusive span of channels.
type Range struct {
	First int
	Last  int
}

// All covers every channel.
var All = Range{First: 0, Last: NumChannels - 1}

// Channel is the debounce and change bookkeeping of one input.
type Channel struct {
	samples uint8 // newest sample in bit 0
	filled  uint8 // samples taken since start, saturates at Window

	Stable      bool
	Reported    bool
	Pending     bool
	Retransmits int
}

// Value is the debounced level. Only meaningful while Stable.
func (c Channel) Value() bool {
	return c.samples == 0xFF
}

// Sampler debounces the feedback inputs and tracks which positions still
// have to be sent.
// It is not safe for concurrent use; the owner serializes Tick, Commit and queries.
type Sampler struct {
	channels    [NumChannels]Channel
	retransmits int
}

// NewSampler returns a sampler that arms retransmitCount+1 sends per change.
func NewSampler(retransmitCount uint8) *Sampler {
	return &Sampler{retransmits: int(retransmitCount) + 1}
}

// Tick shifts one fresh sample into every channel and updates stability and
// pending changes.
func (s *Sampler) Tick(raw Sample) {
	for i := range s.channels {
		c := &s.channels[i]

		c.samples <<= 1
		if raw[i] {
			c.samples |= 1
		}
		if c.filled < Window {
			c.filled++
		}

		c.Stable = c.filled == Window && (c.samples == 0x00 || c.samples == 0xFF)
		if !c.Stable {
			continue
		}

		v := c.Value()
		switch {
		case v != c.Reported && (v != c.Pending || c.Retransmits == 0):
			// new stable position away from what the master knows
			c.Pending = v
			c.Retransmits = s.retransmits
		case v == c.Reported && c.Pending != v:
			// back where it was before the change got out
			c.Pending = v
			c.Retransmits = 0
		}
	}
}

// StabilityAndChange reports whether every channel in r is stable and whether
// any channel in r still has sends outstanding. It does not mutate state.
func (s *Sampler) StabilityAndChange(r Range) (allStable, anyChanged bool) {
	allStable = true
	for i := r.First; i <= r.Last; i++ {
		c := &s.channels[i]
		if !c.Stable {
			allStable = false
		}
		if c.Retransmits > 0 {
			anyChanged = true
		}
	}
	return allStable, anyChanged
}

// Stable reports whether every channel in r is stable.
func (s *Sampler) Stable(r Range) bool {
	ok, _ := s.StabilityAndChange(r)
	return ok
}

// Changed reports whether any channel in r has sends outstanding.
func (s *Sampler) Changed(r Range) bool {
	_, changed := s.StabilityAndChange(r)
	return changed
}

// Commit records that the pending positions of r have been sent once.
func (s *Sampler) Commit(r Range) {
	for i := r.First; i <= r.Last; i++ {
		c := &s.channels[i]
		c.Reported = c.Pending
		if c.Retransmits > 0 {
			c.Retransmits--
		}
	}
}

// Rearm schedules the reported positions of r to be sent again, as if they
// had just changed. A change that is still pending keeps its position.
func (s *Sampler) Rearm(r Range) {
	for i := r.First; i <= r.Last; i++ {
		c := &s.channels[i]
		if c.Retransmits == 0 {
			c.Pending = c.Reported
		}
		c.Retransmits = s.retransmits
	}
}

// DeviceRange returns the channel pair wired to the end switches of device d.
func DeviceRange(d int) Range {
	return Range{First: 2 * d, Last: 2*d + 1}
}

// Channel returns a copy of channel i.
func (s *Sampler) Channel(i int) Channel {
	return s.channels[i]
}

// Reported returns the reported positions as a port image, bit i = channel i.
func (s *Sampler) Reported() uint8 {
	var b uint8
	for i, c := range s.channels {
		if c.Reported {
			b |= 1 << i
		}
	}
	return b
}
