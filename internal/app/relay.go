package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

// Relay is the threadsafe in-memory implementation of core.SignalRelay.
// It owns the per-room registered-peer sets and the pending-offer queues;
// envelope payloads pass through untouched.
type Relay struct {
	mu      sync.Mutex
	peers   map[domain.RoomID]map[domain.ParticipantID]struct{}
	roomOf  map[domain.ParticipantID]domain.RoomID
	pending map[domain.ParticipantID][]domain.Envelope
	bus     *Bus
}

var _ core.SignalRelay = (*Relay)(nil)

func NewRelay(bus *Bus) *Relay {
	return &Relay{
		peers:   make(map[domain.RoomID]map[domain.ParticipantID]struct{}),
		roomOf:  make(map[domain.ParticipantID]domain.RoomID),
		pending: make(map[domain.ParticipantID][]domain.Envelope),
		bus:     bus,
	}
}

func (r *Relay) RegisterPeer(roomID domain.RoomID, id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.roomOf[id]; ok && prev != roomID {
		r.dropPeer(prev, id)
	}
	set, ok := r.peers[roomID]
	if !ok {
		set = make(map[domain.ParticipantID]struct{})
		r.peers[roomID] = set
	}
	set[id] = struct{}{}
	r.roomOf[id] = roomID
	log.Info().Str("module", "app.relay").Str("peer", string(id)).Str("room", string(roomID)).Msg("peer registered")
}

func (r *Relay) UnregisterPeer(roomID domain.RoomID, id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropPeer(roomID, id)
	if r.roomOf[id] == roomID {
		delete(r.roomOf, id)
	}
	log.Info().Str("module", "app.relay").Str("peer", string(id)).Str("room", string(roomID)).Msg("peer unregistered")
}

// dropPeer must be called with the lock held. The last peer leaving a room
// removes the set entirely, no dangling empty sets.
func (r *Relay) dropPeer(roomID domain.RoomID, id domain.ParticipantID) {
	set, ok := r.peers[roomID]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.peers, roomID)
	}
}

func (r *Relay) Peers(roomID domain.RoomID) []domain.ParticipantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.peers[roomID]
	out := make([]domain.ParticipantID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (r *Relay) IsRegistered(id domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.roomOf[id]
	return ok
}

// Broadcast notifies subscribers that env must reach every peer in the room.
func (r *Relay) Broadcast(roomID domain.RoomID, env domain.Envelope) {
	r.bus.Publish(core.Event{Kind: core.EventSignal, RoomID: roomID, Envelope: &env})
}

// Send notifies subscribers of a single envelope without room scoping.
func (r *Relay) Send(env domain.Envelope) {
	r.bus.Publish(core.Event{Kind: core.EventSignal, Envelope: &env})
}

func (r *Relay) QueueOffer(id domain.ParticipantID, env domain.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[id] = append(r.pending[id], env)
	log.Debug().Str("module", "app.relay").Str("peer", string(id)).Str("kind", string(env.Kind)).Int("queued", len(r.pending[id])).Msg("offer queued")
}

// DrainOffers swaps the queue out under the lock: a concurrent QueueOffer
// lands either in the swapped-out slice or in the fresh queue, never both.
func (r *Relay) DrainOffers(id domain.ParticipantID) []domain.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return out
}
