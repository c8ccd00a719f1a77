// internal/status/snapshot.go
package status

// Device is the published state of one coil pair.
type Device struct {
	Position  string `json:"position"`
	Energized bool   `json:"energized"`
}

// Snapshot is what a supervisor may learn about the decoder.
// It holds current state only and is comparable with ==.
type Snapshot struct {
	Health      uint16 `json:"health"`
	DecoderType string `json:"decoder_type"`

	Decoder  uint16 `json:"decoder_address"`
	Feedback uint8  `json:"feedback_address"`
	Loco     uint16 `json:"loco_address"`

	Bus       string    `json:"bus"`
	Reported  uint8     `json:"reported"`
	Telegrams uint64    `json:"telegrams"`
	Devices   [4]Device `json:"devices"`
	Outputs   uint8     `json:"outputs"`

	Restarts uint32 `json:"restarts"`
}
