// internal/mqtt/topics.go
package mqtt

// Command topic suffixes below <prefix>/cmd/.
const (
	CmdAccessory = "accessory"
	CmdProgram   = "program"
	CmdReaddress = "readdress"
)

// Topics builds the topic tree under one prefix.
type Topics struct {
	Prefix string
}

// Commands is the subscription filter for every command topic.
func (t Topics) Commands() string { return t.Prefix + "/cmd/+" }

// Command returns the topic of one command kind.
func (t Topics) Command(kind string) string { return t.Prefix + "/cmd/" + kind }

// Status is the retained status snapshot topic.
func (t Topics) Status() string { return t.Prefix + "/status" }

// Online is the retained availability topic; the will publishes "false".
func (t Topics) Online() string { return t.Prefix + "/online" }

// CommandKind returns the command suffix of topic, or "" when topic is not
// a command topic under this prefix.
func (t Topics) CommandKind(topic string) string {
	base := t.Prefix + "/cmd/"
	if len(topic) <= len(base) || topic[:len(base)] != base {
		return ""
	}
	return topic[len(base):]
}
