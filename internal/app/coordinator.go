package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

// Coordinator is the threadsafe in-memory implementation of
// core.RoomCoordinator. One mutex guards the rooms map and the global
// participant->room index together, which is what makes the room-switch
// compound transition atomic: no reader can observe the participant in
// neither (or both) rooms.
//
// Events are published while the lock is held so notifications for a room
// come out in the order their causing operations were applied.
type Coordinator struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
	index map[domain.ParticipantID]domain.RoomID
	bus   *Bus

	now func() time.Time
}

type roomState struct {
	room    domain.Room
	members map[domain.ParticipantID]*domain.Participant
}

var _ core.RoomCoordinator = (*Coordinator)(nil)

func NewCoordinator(bus *Bus) *Coordinator {
	return &Coordinator{
		rooms: make(map[domain.RoomID]*roomState),
		index: make(map[domain.ParticipantID]domain.RoomID),
		bus:   bus,
		now:   time.Now,
	}
}

func (c *Coordinator) CreateRoom(cfg core.RoomConfig) (domain.Room, error) {
	max := cfg.MaxParticipants
	if max <= 0 {
		max = domain.DefaultMaxParticipants
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[cfg.ID]; ok {
		return domain.Room{}, core.ErrRoomExists
	}
	room := domain.Room{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Description:      cfg.Description,
		LinkedResourceID: cfg.LinkedResourceID,
		MaxParticipants:  max,
		CreatedAt:        c.now(),
		IsActive:         true,
	}
	c.rooms[cfg.ID] = &roomState{
		room:    room,
		members: make(map[domain.ParticipantID]*domain.Participant),
	}
	log.Info().Str("module", "app.coordinator").Str("room", string(cfg.ID)).Int("max", max).Msg("room created")

	snap := room
	c.bus.Publish(core.Event{Kind: core.EventRoomCreated, RoomID: room.ID, Room: &snap})
	return room, nil
}

func (c *Coordinator) GetRoom(id domain.RoomID) (domain.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs, ok := c.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return rs.room, true
}

func (c *Coordinator) ListRooms() []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Room, 0, len(c.rooms))
	for _, rs := range c.rooms {
		out = append(out, rs.room)
	}
	return out
}

func (c *Coordinator) AddParticipant(roomID domain.RoomID, id domain.ParticipantID, displayName string, source domain.AudioSourceType) (domain.Participant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rs, ok := c.rooms[roomID]
	if !ok {
		return domain.Participant{}, core.ErrRoomNotFound
	}
	// A participant already resident here does not count against capacity:
	// a re-join replaces the record instead of growing the room.
	if _, resident := rs.members[id]; !resident && len(rs.members) >= rs.room.MaxParticipants {
		return domain.Participant{}, core.ErrRoomFull
	}

	// Moving from another room is a single compound transition: drop the old
	// membership (with its leave notification) before applying the join.
	if prev, ok := c.index[id]; ok && prev != roomID {
		if prevState, ok := c.rooms[prev]; ok {
			delete(prevState.members, id)
			c.bus.Publish(core.Event{Kind: core.EventParticipantLeft, RoomID: prev, ParticipantID: id})
			log.Info().Str("module", "app.coordinator").Str("participant", string(id)).Str("from_room", string(prev)).Msg("moved out of previous room")
		}
	}

	p := domain.NewParticipant(id, displayName, source, c.now())
	rs.members[id] = p
	c.index[id] = roomID
	log.Info().Str("module", "app.coordinator").Str("participant", string(id)).Str("room", string(roomID)).Msg("participant joined")

	snap := *p
	c.bus.Publish(core.Event{Kind: core.EventParticipantJoined, RoomID: roomID, Participant: &snap})
	return snap, nil
}

func (c *Coordinator) SetMute(roomID domain.RoomID, id domain.ParticipantID, muted bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.member(roomID, id)
	if !ok {
		return false
	}
	p.IsMuted = muted
	c.bus.Publish(core.Event{Kind: core.EventMuteChanged, RoomID: roomID, ParticipantID: id, Muted: muted})
	return true
}

func (c *Coordinator) SetVolume(roomID domain.RoomID, id domain.ParticipantID, volume int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.member(roomID, id)
	if !ok {
		return false
	}
	p.Volume = domain.ClampVolume(volume)
	c.bus.Publish(core.Event{Kind: core.EventVolumeChanged, RoomID: roomID, ParticipantID: id, Volume: p.Volume})
	return true
}

// member must be called with the lock held.
func (c *Coordinator) member(roomID domain.RoomID, id domain.ParticipantID) (*domain.Participant, bool) {
	rs, ok := c.rooms[roomID]
	if !ok {
		return nil, false
	}
	p, ok := rs.members[id]
	return p, ok
}

func (c *Coordinator) RemoveParticipant(roomID domain.RoomID, id domain.ParticipantID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rs, ok := c.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := rs.members[id]; !ok {
		return false
	}
	delete(rs.members, id)
	if c.index[id] == roomID {
		delete(c.index, id)
	}
	log.Info().Str("module", "app.coordinator").Str("participant", string(id)).Str("room", string(roomID)).Msg("participant left")
	c.bus.Publish(core.Event{Kind: core.EventParticipantLeft, RoomID: roomID, ParticipantID: id})
	return true
}

func (c *Coordinator) Participants(roomID domain.RoomID) []domain.Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs, ok := c.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.Participant, 0, len(rs.members))
	for _, p := range rs.members {
		out = append(out, *p)
	}
	return out
}

func (c *Coordinator) RoomOf(id domain.ParticipantID) (domain.RoomID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	roomID, ok := c.index[id]
	return roomID, ok
}

// DeleteRoom removes every participant from the global index without
// individual leave notifications; the single room_deleted event stands for
// all of them.
func (c *Coordinator) DeleteRoom(id domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rs, ok := c.rooms[id]
	if !ok {
		return false
	}
	for pid := range rs.members {
		if c.index[pid] == id {
			delete(c.index, pid)
		}
	}
	delete(c.rooms, id)
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Int("evicted", len(rs.members)).Msg("room deleted")
	c.bus.Publish(core.Event{Kind: core.EventRoomDeleted, RoomID: id})
	return true
}
