package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sweeney/nexus-receiver/internal/logic"
)

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 100

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker         string
	ClientIDPrefix string
	BaseTopic      string
	BufferSize     int
	Logger         *slog.Logger
	// Now stamps the will and RECONNECTED messages. Defaults to time.Now.
	Now func() time.Time
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and sent when it comes back.
type RealPublisher struct {
	client paho.Client
	events string
	system string
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	connected     bool
	everConnected bool
	buffer        *ringBuffer
}

// ClientID returns a client id unique to this process, so that two receivers
// on one broker do not kick each other off.
func ClientID(prefix string) string {
	if prefix == "" {
		prefix = "nexus-receiver"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// WillPayload is the retained message the broker publishes if the receiver
// drops off without a clean shutdown.
func WillPayload(now time.Time) []byte {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: now,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})
	return payload
}

// NewRealPublisher creates a publisher connected to the given broker. If the
// broker cannot be reached within the connect timeout the publisher is still
// returned, buffering until the background retry succeeds.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt: no broker configured")
	}
	p := newPublisher(o)

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(ClientID(o.ClientIDPrefix)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.system, string(WillPayload(p.now())), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		p.logger.Warn("mqtt broker not reachable yet, buffering", "broker", o.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(o Options) *RealPublisher {
	base := o.BaseTopic
	if base == "" {
		base = DefaultBaseTopic
	}
	size := o.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &RealPublisher{
		events: EventsTopic(base),
		system: SystemTopic(base),
		logger: logger,
		now:    now,
		buffer: newRingBuffer(size, logger),
	}
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everConnected
	p.everConnected = true
	queued := p.buffer.drain()
	p.mu.Unlock()

	p.logger.Info("mqtt connected", "replaying", len(queued))

	// Handlers run on paho's goroutine; waiting on tokens there deadlocks.
	go func() {
		if reconnect {
			payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
			p.send(queuedMsg{topic: p.system, payload: payload, qos: 1})
		}
		for _, m := range queued {
			if err := p.send(m); err != nil {
				p.logger.Error("mqtt replay failed", "topic", m.topic, "err", err)
			}
		}
	}()
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.logger.Warn("mqtt connection lost", "err", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// enqueue holds msg for replay if the connection is down. It reports whether
// the message was queued.
func (p *RealPublisher) enqueue(msg queuedMsg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return false
	}
	p.buffer.push(msg)
	return true
}

func (p *RealPublisher) send(msg queuedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	return token.Error()
}

func (p *RealPublisher) publish(msg queuedMsg) error {
	if p.enqueue(msg) {
		return nil
	}
	if err := p.send(msg); err != nil {
		p.mu.Lock()
		p.buffer.push(msg)
		p.mu.Unlock()
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// Publish sends a sensor event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(queuedMsg{topic: p.events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(queuedMsg{topic: p.system, payload: payload, qos: 1, retained: event.Retained})
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
