package queue

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"basegraph.app/mergebot/internal/event"
)

// Message is an event read back from the stream.
type Message struct {
	ID         string
	DeliveryID int64
	Event      event.Event
	Attempt    int
	TraceID    string
	Raw        redis.XMessage
}

func (m Message) eventMessage() EventMessage {
	return EventMessage{
		DeliveryID: m.DeliveryID,
		Event:      m.Event,
		TraceID:    m.TraceID,
		Attempt:    m.Attempt,
	}
}

func messageValues(msg EventMessage) (map[string]any, error) {
	if msg.Event == nil {
		return nil, fmt.Errorf("encode message: missing event")
	}

	payload, err := event.Marshal(msg.Event)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		"kind":        string(msg.Event.Kind()),
		"payload":     string(payload),
		"delivery_id": msg.DeliveryID,
		"attempt":     attempt,
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values, nil
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	kind, err := parseString(msg.Values, "kind")
	if err != nil {
		return Message{}, err
	}
	payload, err := parseString(msg.Values, "payload")
	if err != nil {
		return Message{}, err
	}

	ev, err := event.Unmarshal(event.Kind(kind), []byte(payload))
	if err != nil {
		return Message{}, err
	}

	deliveryID, err := parseOptionalInt64(msg.Values, "delivery_id")
	if err != nil {
		return Message{}, err
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	traceID, _ := parseString(msg.Values, "trace_id")

	return Message{
		ID:         msg.ID,
		DeliveryID: deliveryID,
		Event:      ev,
		Attempt:    attempt,
		TraceID:    traceID,
		Raw:        msg,
	}, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}
