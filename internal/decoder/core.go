// internal/decoder/core.go
package decoder

import (
	"fmt"

	"github.com/tamzrod/accessory-decoder/internal/actuator"
	"github.com/tamzrod/accessory-decoder/internal/address"
	"github.com/tamzrod/accessory-decoder/internal/cv"
	"github.com/tamzrod/accessory-decoder/internal/feedback"
	"github.com/tamzrod/accessory-decoder/internal/hw"
	"github.com/tamzrod/accessory-decoder/internal/rsbus"
	"github.com/tamzrod/accessory-decoder/internal/status"
)

// core is everything derived from the CV block at start-up.
// A restart throws it away and builds a new one.
type core struct {
	addrs  address.Addresses
	wiring actuator.Wiring
	port   *hw.Port
	act    *actuator.Actuator

	// nil when the feedback path is disabled
	sampler *feedback.Sampler
	engine  *rsbus.Engine

	health uint16
}

// build derives a core from the CV block.
func build(r cv.Reader, bus rsbus.Transmitter) (*core, error) {
	c := &core{
		addrs: address.Resolve(r),
		port:  hw.NewPort(),
	}

	feedbackCapable := false
	switch t := r.Get(cv.DecoderType); t {
	case cv.TypeSwitch:
		c.wiring = actuator.SwitchWiring{}
		feedbackCapable = true
	case cv.TypeRelays4:
		c.wiring = actuator.RelayWiring{}
	default:
		return nil, fmt.Errorf("decoder: unsupported decoder type 0x%02x", t)
	}

	var acfg actuator.Config
	for i := range acfg.HoldTicks {
		acfg.HoldTicks[i] = r.Get(cv.HoldTime1 + i)
	}
	acfg.AlwaysReassert = r.Get(cv.AlwaysActivate) != 0
	c.act = actuator.New(acfg, c.wiring, c.port)

	if feedbackCapable && r.Get(cv.SendFeedback) != 0 && c.addrs.FeedbackSet() {
		c.sampler = feedback.NewSampler(r.Get(cv.Retransmits))
		e, err := rsbus.NewEngine(rsbus.Config{
			Address: c.addrs.Feedback,
			Split:   r.Get(cv.SplitFeedback) != 0,
		}, c.sampler, bus)
		if err != nil {
			return nil, err
		}
		c.engine = e
	}

	switch {
	case !c.addrs.DecoderValid():
		c.health = status.HealthUnaddressed
	case c.engine == nil:
		c.health = status.HealthFeedbackDisabled
	default:
		c.health = status.HealthOK
	}

	return c, nil
}
