package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamwear_webhooks_received_total",
		Help: "Inbound commerce webhooks by outcome (ok, unauthenticated, malformed).",
	}, []string{"outcome"})

	GiveawayOrdersMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamwear_giveaway_orders_materialized_total",
		Help: "Giveaway order rows created from webhook line items.",
	})

	AlertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamwear_alerts_published_total",
		Help: "Purchase alerts published to streamer topics by outcome (ok, error).",
	}, []string{"outcome"})

	DrawsPerformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamwear_draws_performed_total",
		Help: "Winner draws completed.",
	})

	FeedEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamwear_feed_events_applied_total",
		Help: "Participant change-feed events applied by operation.",
	}, []string{"op"})
)
