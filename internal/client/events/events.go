// Package events carries the session-terminated notification from the
// transport to the top-level coordinator over an in-process watermill
// pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
)

// TopicSessionTerminated is published whenever the remote service rejected a
// request with 401 and the local session was torn down.
const TopicSessionTerminated = "session.terminated"

// SessionTerminated describes one observed authorization failure.
type SessionTerminated struct {
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Bus is an in-process publisher/subscriber for session events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger logging.Logger
}

func NewBus(logger logging.Logger) *Bus {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		// keeps delivery in publish order
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NopLogger{})
	return &Bus{pubsub: ps, logger: logger}
}

// SessionTerminated publishes ev and returns once the subscriber took it
// (immediately when nobody listens). Failures are only logged: the local
// teardown has already happened by then.
func (b *Bus) SessionTerminated(ctx context.Context, ev SessionTerminated) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error(ctx, "marshal session event", "err", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicSessionTerminated, msg); err != nil {
		b.logger.Error(ctx, "publish session event", "err", err)
	}
}

// Subscribe returns decoded session-terminated events until ctx is done or
// the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan SessionTerminated, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicSessionTerminated)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicSessionTerminated, err)
	}

	out := make(chan SessionTerminated)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev SessionTerminated
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn(ctx, "drop malformed session event", "uuid", msg.UUID, "err", err)
				msg.Ack()
				continue
			}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
