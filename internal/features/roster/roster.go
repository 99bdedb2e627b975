// Package roster keeps a live, ordered view of giveaway participants and
// fans row-level change events out to connected overlay clients.
package roster

import (
	"context"
	"sort"
	"sync"

	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
)

// Event is one applied roster change. Op is INSERT, UPDATE or DELETE.
type Event struct {
	Op          string             `json:"op"`
	Participant models.Participant `json:"participant"`
}

// Manager holds one in-memory roster per giveaway, deduplicated by
// participant id and ordered by join time. Rosters are filled from storage on
// first subscription and kept current by the change feed.
type Manager struct {
	repo repository.GiveawayRepository

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	loaded       bool
	participants []models.Participant
	subs         map[chan Event]struct{}
}

func NewManager(repo repository.GiveawayRepository) *Manager {
	return &Manager{repo: repo, rooms: make(map[string]*room)}
}

// Subscribe returns the current roster snapshot and a channel of subsequent
// events. The caller must invoke the returned cancel func when done.
func (m *Manager) Subscribe(ctx context.Context, giveawayID string) ([]models.Participant, <-chan Event, func(), error) {
	m.mu.Lock()
	r := m.room(giveawayID)
	if !r.loaded {
		// Load under the lock so a concurrent feed event cannot land
		// between snapshot and subscription.
		participants, err := m.repo.ListParticipants(ctx, giveawayID)
		if err != nil {
			m.mu.Unlock()
			return nil, nil, nil, err
		}
		r.participants = participants
		r.loaded = true
	}

	ch := make(chan Event, 16)
	r.subs[ch] = struct{}{}
	snapshot := make([]models.Participant, len(r.participants))
	copy(snapshot, r.participants)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
		if len(r.subs) == 0 {
			delete(m.rooms, giveawayID)
		}
	}
	return snapshot, ch, cancel, nil
}

// Apply folds one change-feed event into the roster and broadcasts it.
// Events for rosters nobody watches only update state that has already been
// loaded; cold rooms are dropped.
func (m *Manager) Apply(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[ev.Participant.GiveawayID]
	if !ok {
		return
	}
	if r.loaded {
		r.apply(ev)
	}
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
			// Slow client; it still holds a consistent snapshot and
			// can resubscribe for a fresh one.
		}
	}
}

// Participants returns the current roster copy for a giveaway, empty when the
// room is cold.
func (m *Manager) Participants(giveawayID string) []models.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[giveawayID]
	if !ok || !r.loaded {
		return nil
	}
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (m *Manager) room(giveawayID string) *room {
	r, ok := m.rooms[giveawayID]
	if !ok {
		r = &room{subs: make(map[chan Event]struct{})}
		m.rooms[giveawayID] = r
	}
	return r
}

func (r *room) apply(ev Event) {
	switch ev.Op {
	case "DELETE":
		for i := range r.participants {
			if r.participants[i].ID == ev.Participant.ID {
				r.participants = append(r.participants[:i], r.participants[i+1:]...)
				return
			}
		}
	default:
		// INSERT and UPDATE both upsert by id; a replayed insert after a
		// reconnect must not duplicate the row.
		for i := range r.participants {
			if r.participants[i].ID == ev.Participant.ID {
				r.participants[i] = ev.Participant
				r.sortByJoin()
				return
			}
		}
		r.participants = append(r.participants, ev.Participant)
		r.sortByJoin()
	}
}

func (r *room) sortByJoin() {
	sort.SliceStable(r.participants, func(i, j int) bool {
		if r.participants[i].JoinedAt.Equal(r.participants[j].JoinedAt) {
			return r.participants[i].ID < r.participants[j].ID
		}
		return r.participants[i].JoinedAt.Before(r.participants[j].JoinedAt)
	})
}
