package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope carried across the event bus.
// The payload is an opaque serialized record understood by the handler
// registered for the routing key; events are immutable once published.
type Event struct {
	// ID is a unique identifier for this event
	ID string `json:"id"`

	// RoutingKey is the dot-separated topic used to route the event to
	// bound queues. Examples: "post.created", "post.deleted"
	RoutingKey string `json:"routing_key"`

	// Payload contains the serialized event record (JSON-encoded)
	// Using json.RawMessage to preserve structure during marshal/unmarshal
	Payload json.RawMessage `json:"payload"`

	// Timestamp when the event was created by the publisher
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new event with the given routing key.
// The payload is automatically marshaled to JSON.
func NewEvent(routingKey string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New().String(),
		RoutingKey: routingKey,
		Payload:    data,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// Unmarshal unmarshals the payload into the given value.
// Unknown payload fields are ignored, so consumers stay compatible with
// publishers that add fields.
func (e *Event) Unmarshal(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

func newEventID() string {
	return uuid.New().String()
}

// delivery wraps an event on a queue with its delivery count so bounded
// retry survives requeues.
type delivery struct {
	Deliveries int    `json:"deliveries"`
	Event      *Event `json:"event"`
}
