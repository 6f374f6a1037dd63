package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/j-veylop/stepmeter/internal/logger"
)

// Topics below the configured prefix.
const (
	TopicCapabilities = "sensors/capabilities"
	TopicReadings     = "sensors/readings"
)

// MQTTBackend receives sensor callbacks from a bridge that publishes them
// to a broker. The bridge publishes a retained capabilities document and a
// stream of readings.
type MQTTBackend struct {
	client       paho.Client
	out          chan Reading
	prefix       string
	probeTimeout time.Duration
	kind         Kind
	mu           sync.Mutex
	closed       bool
}

// NewMQTTBackend connects to broker.
func NewMQTTBackend(broker, prefix, clientID string) (*MQTTBackend, error) {
	b := newMQTTBackend(nil, prefix)

	// Sessions are clean, so every reconnect has to subscribe again.
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("Sensor broker connection lost", "error", err)
		})

	b.client = paho.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return b, nil
}

func newMQTTBackend(client paho.Client, prefix string) *MQTTBackend {
	return &MQTTBackend{
		client:       client,
		prefix:       prefix,
		probeTimeout: 5 * time.Second,
	}
}

func (b *MQTTBackend) topic(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "/" + name
}

// Probe waits for the retained capabilities document.
func (b *MQTTBackend) Probe(ctx context.Context) (Capabilities, error) {
	result := make(chan Capabilities, 1)
	topic := b.topic(TopicCapabilities)

	token := b.client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		caps, err := DecodeCapabilities(msg.Payload())
		if err != nil {
			logger.Warn("Ignoring capabilities message", "topic", msg.Topic(), "error", err)
			return
		}
		select {
		case result <- caps:
		default:
		}
	})
	if err := waitToken(token); err != nil {
		return Capabilities{}, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	defer b.client.Unsubscribe(topic)

	timer := time.NewTimer(b.probeTimeout)
	defer timer.Stop()

	select {
	case caps := <-result:
		return caps, nil
	case <-timer.C:
		logger.Warn("No sensor capabilities published", "topic", topic)
		return Capabilities{}, nil
	case <-ctx.Done():
		return Capabilities{}, ctx.Err()
	}
}

// Start subscribes to readings of kind.
func (b *MQTTBackend) Start(_ context.Context, kind Kind) (<-chan Reading, error) {
	b.mu.Lock()
	if b.out != nil {
		b.mu.Unlock()
		return nil, errors.New("mqtt backend already started")
	}
	b.kind = kind
	b.out = make(chan Reading, 256)
	b.mu.Unlock()

	if err := b.subscribeReadings(b.client); err != nil {
		return nil, err
	}
	return b.out, nil
}

func (b *MQTTBackend) subscribeReadings(c paho.Client) error {
	topic := b.topic(TopicReadings)
	token := c.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		b.handleReading(msg.Payload())
	})
	if err := waitToken(token); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// onConnect restores the readings subscription after a reconnect. Before
// Start there is nothing to restore.
func (b *MQTTBackend) onConnect(c paho.Client) {
	b.mu.Lock()
	started := b.out != nil && !b.closed
	b.mu.Unlock()
	if !started {
		return
	}
	if err := b.subscribeReadings(c); err != nil {
		logger.Error("Failed to resubscribe to sensor readings", "error", err)
		return
	}
	logger.Info("Resubscribed to sensor readings", "topic", b.topic(TopicReadings))
}

// handleReading decodes one payload and forwards it when it matches the
// started kind. Paho calls handlers from its own goroutine, so a full
// buffer drops the reading instead of blocking the client.
func (b *MQTTBackend) handleReading(payload []byte) {
	r, err := DecodeReading(payload)
	if err != nil {
		logger.Warn("Ignoring sensor reading", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || r.Kind != b.kind {
		return
	}
	select {
	case b.out <- r:
	default:
		logger.Warn("Sensor reading dropped, consumer is behind", "kind", r.Kind.String())
	}
}

// Close unsubscribes and disconnects.
func (b *MQTTBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.out != nil {
		close(b.out)
	}
	b.mu.Unlock()

	if b.client.IsConnected() {
		b.client.Unsubscribe(b.topic(TopicReadings)).WaitTimeout(time.Second)
	}
	b.client.Disconnect(250)
	return nil
}

func waitToken(token paho.Token) error {
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("timeout")
	}
	return token.Error()
}
