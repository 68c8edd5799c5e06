package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/aux-lights/internal/logger"
	"github.com/sweeney/aux-lights/internal/logic"
)

// BufferSize is the number of messages held while the broker is unreachable.
const BufferSize = 256

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *logger.Logger

	mu        sync.Mutex
	buf       *backlog
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher for the given broker and starts connecting.
// It does not wait for the broker: events are buffered until the first
// connection succeeds. The broker holds a retained OFFLINE system event as last will.
func NewRealPublisher(broker string, l *logger.Logger) (*RealPublisher, error) {
	p := newPublisher(l)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("aux-lights").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.log.Infof("connecting to %s", broker)
	token := p.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.log.Warnf("connect: %v", err)
		}
	}()

	return p, nil
}

func newPublisher(l *logger.Logger) *RealPublisher {
	return &RealPublisher{
		log: l.WithTag("mqtt"),
		buf: newBacklog(BufferSize),
	}
}

// onConnect replays everything buffered while offline, oldest first.
// Reconnects are announced with a RECONNECTED system event ahead of the replay.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	pending, dropped := p.buf.drain()
	p.mu.Unlock()

	if reconnect {
		p.log.Infof("reconnected, replaying %d buffered messages (%d dropped)", len(pending), dropped)
		ev := SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED", Dropped: dropped}
		if payload, err := FormatSystemPayload(ev); err == nil {
			p.send(TopicSystem, systemQoS, false, payload)
		}
	} else {
		p.log.Infof("connected, replaying %d buffered messages (%d dropped)", len(pending), dropped)
	}
	for _, m := range pending {
		p.send(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) onConnectionLost(c paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.Warnf("connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// send publishes or buffers the message when offline.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.IsConnected() {
		p.enqueue(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.enqueue(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.enqueue(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *RealPublisher) enqueue(m bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(m)
	p.mu.Unlock()
	if dropped {
		p.log.Warnf("buffer full (%d messages), dropping oldest", BufferSize)
	}
}

// Publish sends a light event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	return p.send(Topic, eventQoS, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	return p.send(TopicSystem, systemQoS, event.Retained, payload)
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
