// Package alerts broadcasts short-lived purchase alerts to per-streamer
// topics. Delivery is fire-and-forget: a publish with no overlay subscribed
// is not retried or queued.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"streamwear-backend/internal/metrics"
	"streamwear-backend/internal/platform/redis"
)

// Payload is the overlay-facing alert body, schema shared with the alertbox
// client.
type Payload struct {
	Type         string `json:"type"`
	Customer     string `json:"customer"`
	ProductTitle string `json:"product_title"`
	VariantTitle string `json:"variant_title"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	Currency     string `json:"currency"`
	CreatedAt    string `json:"created_at"`
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
}

// Envelope wraps every broadcast frame.
type Envelope struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

// Publisher sends alerts over a single shared Redis connection pool; callers
// never deal with channel lifecycle.
type Publisher struct {
	rdb    *redis.Client
	prefix string
}

func NewPublisher(rdb *redis.Client, prefix string) *Publisher {
	return &Publisher{rdb: rdb, prefix: prefix}
}

// Topic returns the per-streamer channel name.
func (p *Publisher) Topic(streamerUUID string) string {
	return fmt.Sprintf("%s:%s", p.prefix, streamerUUID)
}

// Publish broadcasts one alert to the streamer's topic.
func (p *Publisher) Publish(ctx context.Context, streamerUUID string, payload Payload) error {
	frame, err := json.Marshal(Envelope{Event: "alert", Payload: payload})
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.Topic(streamerUUID), frame).Err(); err != nil {
		metrics.AlertsPublished.WithLabelValues("error").Inc()
		return err
	}
	metrics.AlertsPublished.WithLabelValues("ok").Inc()
	return nil
}

// Subscribe opens a subscription on the streamer's topic. The returned
// channel closes when ctx is canceled; the caller gets raw envelope frames.
func (p *Publisher) Subscribe(ctx context.Context, streamerUUID string) (<-chan []byte, func()) {
	sub := p.rdb.Subscribe(ctx, p.Topic(streamerUUID))
	out := make(chan []byte, 8)

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					// Slow overlay; alerts are ephemeral, drop the frame.
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}
