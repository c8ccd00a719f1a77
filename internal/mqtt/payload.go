// internal/mqtt/payload.go
package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/tamzrod/accessory-decoder/internal/actuator"
	"github.com/tamzrod/accessory-decoder/internal/decoder"
)

type accessoryPayload struct {
	Address  *uint16 `json:"address"`
	Device   int     `json:"device"`
	Gate     string  `json:"gate"`
	Activate *bool   `json:"activate"`
}

type programPayload struct {
	CV    int    `json:"cv"`
	Value *int   `json:"value"`
	Loco  uint16 `json:"loco"`
}

type readdressPayload struct {
	Address *uint16 `json:"address"`
}

// ParseCommand decodes the JSON payload of a command topic.
func ParseCommand(kind string, payload []byte) (decoder.Command, error) {
	switch kind {
	case CmdAccessory:
		var p accessoryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return decoder.Command{}, fmt.Errorf("mqtt: accessory payload: %w", err)
		}
		if p.Address == nil {
			return decoder.Command{}, fmt.Errorf("mqtt: accessory payload: address required")
		}
		if p.Device < 0 || p.Device >= actuator.NumDevices {
			return decoder.Command{}, fmt.Errorf("mqtt: accessory payload: device %d out of range", p.Device)
		}
		var g actuator.Gate
		switch p.Gate {
		case "green":
			g = actuator.Green
		case "red":
			g = actuator.Red
		default:
			return decoder.Command{}, fmt.Errorf("mqtt: accessory payload: gate %q (want green or red)", p.Gate)
		}
		activate := true
		if p.Activate != nil {
			activate = *p.Activate
		}
		return decoder.Command{
			Kind:     decoder.KindAccessory,
			Address:  *p.Address,
			Device:   p.Device,
			Gate:     g,
			Activate: activate,
		}, nil

	case CmdProgram:
		var p programPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return decoder.Command{}, fmt.Errorf("mqtt: program payload: %w", err)
		}
		if p.Value == nil || *p.Value < 0 || *p.Value > 0xFF {
			return decoder.Command{}, fmt.Errorf("mqtt: program payload: value must be 0..255")
		}
		return decoder.Command{
			Kind:  decoder.KindProgram,
			CV:    p.CV,
			Value: byte(*p.Value),
			Loco:  p.Loco,
		}, nil

	case CmdReaddress:
		var p readdressPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return decoder.Command{}, fmt.Errorf("mqtt: readdress payload: %w", err)
		}
		if p.Address == nil {
			return decoder.Command{}, fmt.Errorf("mqtt: readdress payload: address required")
		}
		return decoder.Command{Kind: decoder.KindReaddress, Address: *p.Address}, nil

	default:
		return decoder.Command{}, fmt.Errorf("mqtt: unknown command %q", kind)
	}
}
