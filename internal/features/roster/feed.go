package roster

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"

	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/metrics"
)

const feedChannel = "giveaway_participants_events"

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
)

// Feed consumes the Postgres NOTIFY stream written by the participant-table
// trigger and forwards each row change to the Manager. One Feed runs per
// process; the listener reconnects on its own after connection loss.
type Feed struct {
	dsn     string
	manager *Manager
}

func NewFeed(dsn string, manager *Manager) *Feed {
	return &Feed{dsn: dsn, manager: manager}
}

// Run blocks until ctx is canceled.
func (f *Feed) Run(ctx context.Context) error {
	listener := pq.NewListener(f.dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error().Err(err).Int("event", int(ev)).Msg("participant feed listener error")
		}
	})
	defer listener.Close()

	if err := listener.Listen(feedChannel); err != nil {
		return err
	}
	logger.Info().Str("channel", feedChannel).Msg("participant feed started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			if n == nil {
				// Reconnect marker. Watchers keep their snapshots; new
				// subscribers reload from storage.
				logger.Warn().Msg("participant feed reconnected")
				continue
			}
			f.handle(n.Extra)
		case <-time.After(pingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					logger.Error().Err(err).Msg("participant feed ping failed")
				}
			}()
		}
	}
}

type feedNotification struct {
	Op  string          `json:"op"`
	Row json.RawMessage `json:"row"`
}

func (f *Feed) handle(payload string) {
	var n feedNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		logger.Error().Err(err).Msg("participant feed: malformed notification")
		return
	}

	ev := Event{Op: n.Op}
	if err := json.Unmarshal(n.Row, &ev.Participant); err != nil {
		logger.Error().Err(err).Str("op", n.Op).Msg("participant feed: malformed row")
		return
	}
	if ev.Participant.GiveawayID == "" {
		logger.Warn().Str("op", n.Op).Msg("participant feed: row without giveaway id")
		return
	}

	f.manager.Apply(ev)
	metrics.FeedEventsApplied.WithLabelValues(strings.ToLower(n.Op)).Inc()
}
