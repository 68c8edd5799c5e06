package mqtt

import (
	"github.com/sweeney/aux-lights/internal/logic"
)

// Message is one publish as it would reach the broker.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakePublisher records publishes with the topic, QoS and retain flag the
// real publisher would use.
type FakePublisher struct {
	Events         []logic.Event
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Messages holds every publish in order, light and system events interleaved.
	Messages []Message

	// PublishError and PublishSystemError fail the matching call without recording.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records a light event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.Messages = append(f.Messages, Message{Topic: Topic, QoS: eventQoS, Payload: payload})
	return nil
}

// PublishSystem records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Messages = append(f.Messages, Message{
		Topic:    TopicSystem,
		QoS:      systemQoS,
		Retained: event.Retained,
		Payload:  payload,
	})
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// EventTypes returns the type of every recorded light event in order.
func (f *FakePublisher) EventTypes() []logic.EventType {
	types := make([]logic.EventType, len(f.Events))
	for i, e := range f.Events {
		types[i] = e.Type
	}
	return types
}

// Lights returns the output state carried by the last light event,
// which is what a subscriber would display.
func (f *FakePublisher) Lights() (logic.Lights, bool) {
	if len(f.Events) == 0 {
		return logic.Lights{}, false
	}
	return f.Events[len(f.Events)-1].Lights, true
}

// Reset clears recordings, injected errors and flags.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
