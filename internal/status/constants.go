// internal/status/constants.go
package status

// Decoder status codes.
// These values are published to supervisors and MUST NOT be configurable.

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first tick.
const HealthUnknown uint16 = 0

// HealthOK represents a fully addressed decoder reporting feedback.
const HealthOK uint16 = 1

// HealthUnaddressed represents a decoder without a valid decoder address.
// Accessory commands are ignored until it is addressed.
const HealthUnaddressed uint16 = 2

// HealthFeedbackDisabled represents a decoder that switches but does not
// report: relay board, SendFeedback off, or no RS-bus address.
const HealthFeedbackDisabled uint16 = 3

// HealthIOError represents a decoder whose hardware backend is failing.
const HealthIOError uint16 = 4

// ---- BUS STATES ----

// BusOff is published when the feedback path is not running.
const BusOff = "off"
