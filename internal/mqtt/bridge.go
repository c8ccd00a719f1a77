// internal/mqtt/bridge.go
package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/accessory-decoder/internal/decoder"
	"github.com/tamzrod/accessory-decoder/internal/status"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// Config selects the broker and topic tree.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// Sink receives parsed commands. It must not block.
type Sink interface {
	Push(cmd decoder.Command) bool
}

// Bridge feeds MQTT commands into the decoder and publishes its status.
type Bridge struct {
	client pahomqtt.Client
	topics Topics
	qos    byte
	sink   Sink
	log    *slog.Logger
}

// Connect dials the broker. Command subscriptions are (re)made on every
// connect, availability is announced retained with a will.
func Connect(cfg Config, sink Sink, log *slog.Logger) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker required")
	}
	if sink == nil {
		return nil, errors.New("mqtt: command sink required")
	}

	b := &Bridge{
		topics: Topics{Prefix: cfg.TopicPrefix},
		qos:    cfg.QoS,
		sink:   sink,
		log:    log,
	}

	opts := pahomqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetWill(b.topics.Online(), "false", cfg.QoS, true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		b.onConnect(c)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.log.Warn("mqtt connection lost", "err", err)
	})

	b.client = pahomqtt.NewClient(opts)
	tok := b.client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect %s: timeout after %v", cfg.Broker, connectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, err)
	}
	return b, nil
}

func (b *Bridge) onConnect(c pahomqtt.Client) {
	c.Subscribe(b.topics.Commands(), b.qos, func(_ pahomqtt.Client, m pahomqtt.Message) {
		b.handle(m.Topic(), m.Payload())
	})
	c.Publish(b.topics.Online(), b.qos, true, "true")
	b.log.Info("mqtt connected", "commands", b.topics.Commands())
}

// handle parses one command message and queues it.
func (b *Bridge) handle(topic string, payload []byte) {
	kind := b.topics.CommandKind(topic)
	cmd, err := ParseCommand(kind, payload)
	if err != nil {
		b.log.Warn("mqtt command rejected", "topic", topic, "err", err)
		return
	}
	if !b.sink.Push(cmd) {
		b.log.Warn("mqtt command dropped, decoder busy", "topic", topic)
	}
}

// PublishStatus publishes s retained. It does not wait for the broker, so it
// is safe to call from the decoder's owner goroutine.
func (b *Bridge) PublishStatus(s status.Snapshot) {
	raw, err := status.Encode(s)
	if err != nil {
		b.log.Error("status encode failed", "err", err)
		return
	}
	b.client.Publish(b.topics.Status(), b.qos, true, raw)
}

// Close announces the decoder offline and disconnects.
func (b *Bridge) Close() {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	tok := b.client.Publish(b.topics.Online(), b.qos, true, "false")
	tok.WaitTimeout(time.Second)
	b.client.Disconnect(disconnectQuiesce)
}
