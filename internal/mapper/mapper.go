// Package mapper normalizes provider webhook payloads into events.
package mapper

import (
	"context"
	"errors"

	"basegraph.app/mergebot/internal/event"
)

// ErrUnsupportedEvent is returned for webhook kinds the bot does not consume.
var ErrUnsupportedEvent = errors.New("unsupported event")

// EventMapper turns one webhook delivery into zero or more events. Zero
// events means the delivery was understood but carries nothing to act on.
type EventMapper interface {
	Map(ctx context.Context, eventType string, body []byte) ([]event.Event, error)
}
