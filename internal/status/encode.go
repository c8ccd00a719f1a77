// internal/status/encode.go
package status

import "encoding/json"

// Encode converts a Snapshot into its published JSON form.
// No IO. No side effects.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(struct {
		Snapshot
		HealthName string `json:"health_name"`
	}{s, HealthName(s.Health)})
}

// HealthName returns the label of a health code.
func HealthName(code uint16) string {
	switch code {
	case HealthOK:
		return "ok"
	case HealthUnaddressed:
		return "unaddressed"
	case HealthFeedbackDisabled:
		return "feedback_disabled"
	case HealthIOError:
		return "io_error"
	default:
		return "unknown"
	}
}
