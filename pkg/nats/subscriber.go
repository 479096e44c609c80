package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. A returned error redelivers the message.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber listens for events from NATS through durable consumers.
type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	log      logger.ILogger
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(ctx context.Context, url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	if err := ensureStream(ctx, js); err != nil {
		log.Warn("NATS", "Failed to ensure stream", map[string]interface{}{"stream": StreamName, "error": err.Error()})
	}
	return &Subscriber{nc: nc, js: js, log: log}, nil
}

// toEvent rebuilds an event from a message. The subject minus the "events."
// prefix becomes the event type.
func toEvent(msg jetstream.Msg) (events.Event, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Data(), &payload); err != nil {
		return nil, err
	}

	occurredAt := time.Now()
	if meta, err := msg.Metadata(); err == nil {
		occurredAt = meta.Timestamp
	}

	return events.BaseEvent{
		Type:       strings.TrimPrefix(msg.Subject(), events.SubjectPrefix),
		Data:       payload,
		OccurredAt: occurredAt,
	}, nil
}

// Subscribe registers a handler for a subject pattern on a durable consumer.
func (s *Subscriber) Subscribe(ctx context.Context, subject string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := toEvent(msg)
		if err != nil {
			// Undecodable messages would fail forever.
			s.log.Error("NATS", "Dropping undecodable message", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			s.log.Warn("NATS", "Handler failed, message will be redelivered", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.consumes = append(s.consumes, cc)
	s.log.Info("NATS", "Subscribed", map[string]interface{}{"subject": subject, "durable": durableName})
	return nil
}

func (s *Subscriber) Close() {
	for _, cc := range s.consumes {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
