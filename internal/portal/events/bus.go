// Package events carries user-facing signals from the portal to the UI over
// an in-process watermill pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/aussiebroadwan/portal/internal/portal/session"
)

const metadataTopic = "topic"

// Config tunes the Bus.
type Config struct {
	// BufferSize is the per-subscriber output buffer
	BufferSize int
}

// Envelope is one delivered message.
type Envelope struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Bus publishes portal signals. Messages published while nobody is
// subscribed are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *slog.Logger

	wg sync.WaitGroup
}

// NewBus creates a Bus on an in-memory GoChannel. A nil logger disables
// watermill's own logging.
func NewBus(cfg Config, logger watermill.LoggerAdapter, log *slog.Logger) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if log == nil {
		log = slog.Default()
	}

	bufferSize := 100
	if cfg.BufferSize > 0 {
		bufferSize = cfg.BufferSize
	}

	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            int64(bufferSize),
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: false,
			},
			logger,
		),
		log: log,
	}
}

// Publish implements session.Notifier.
func (b *Bus) Publish(ctx context.Context, e session.Event) {
	if err := b.publish(ctx, TopicSession, e); err != nil {
		b.log.Error("event_publish_failed", "kind", e.Kind, "error", err)
	}
}

// Toast publishes a user notification.
func (b *Bus) Toast(ctx context.Context, t Toast) error {
	return b.publish(ctx, TopicToast, t)
}

// Navigate asks the UI to change location.
func (b *Bus) Navigate(ctx context.Context, n Navigation) error {
	return b.publish(ctx, TopicNavigate, n)
}

// PostToHost forwards msg to the embedding page at targetOrigin.
func (b *Bus) PostToHost(ctx context.Context, targetOrigin string, msg HostMessage) error {
	return b.publish(ctx, TopicHost, HostPost{TargetOrigin: targetOrigin, Message: msg})
}

func (b *Bus) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataTopic, topic)
	msg.SetContext(ctx)

	return b.pubsub.Publish(topic, msg)
}

// Subscribe delivers every message published on topics until ctx is done.
// The returned channel is closed afterwards.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan Envelope, error) {
	if len(topics) == 0 {
		topics = AllTopics()
	}

	out := make(chan Envelope)
	var fan sync.WaitGroup

	for _, topic := range topics {
		ch, err := b.pubsub.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}

		fan.Add(1)
		go func() {
			defer fan.Done()
			for msg := range ch {
				env := Envelope{ID: msg.UUID, Topic: msg.Metadata.Get(metadataTopic), Payload: json.RawMessage(msg.Payload)}
				select {
				case out <- env:
					msg.Ack()
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fan.Wait()
		close(out)
	}()

	return out, nil
}

// Close shuts the pub/sub down and waits for subscriptions to drain.
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
