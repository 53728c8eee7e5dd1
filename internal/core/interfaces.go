// Package core defines the component contracts of the voice-room subsystem.
// All room/participant state lives behind these interfaces; nothing outside
// the implementations mutates it directly.
package core

import "github.com/nicksbar/YAHAML-sub001/internal/domain"

// RoomConfig is the caller-supplied shape of a new room.
// MaxParticipants <= 0 falls back to domain.DefaultMaxParticipants.
type RoomConfig struct {
	ID               domain.RoomID
	Name             string
	Description      string
	LinkedResourceID string
	MaxParticipants  int
}

// RoomCoordinator owns room and participant lifecycle: creation, capacity,
// join/leave, mute/volume, and the single-room-membership index. Snapshots
// returned by its read methods are copies; mutating them has no effect.
type RoomCoordinator interface {
	CreateRoom(cfg RoomConfig) (domain.Room, error)
	GetRoom(id domain.RoomID) (domain.Room, bool)
	ListRooms() []domain.Room

	// AddParticipant joins a participant to a room. A participant already in
	// a different room is moved atomically: the old membership is dropped
	// (with a leave notification) before the join is applied.
	AddParticipant(roomID domain.RoomID, id domain.ParticipantID, displayName string, source domain.AudioSourceType) (domain.Participant, error)
	// SetMute and SetVolume report whether the target existed; absence is not
	// an error since retries and disconnect races are expected.
	SetMute(roomID domain.RoomID, id domain.ParticipantID, muted bool) bool
	SetVolume(roomID domain.RoomID, id domain.ParticipantID, volume int) bool
	RemoveParticipant(roomID domain.RoomID, id domain.ParticipantID) bool
	Participants(roomID domain.RoomID) []domain.Participant
	RoomOf(id domain.ParticipantID) (domain.RoomID, bool)
	DeleteRoom(id domain.RoomID) bool
}

// SignalRelay owns the per-room registered-peer sets and the per-participant
// pending-offer queues. Registration is decoupled from room membership so a
// participant can be a member before their transport is ready to receive.
type SignalRelay interface {
	RegisterPeer(roomID domain.RoomID, id domain.ParticipantID)
	UnregisterPeer(roomID domain.RoomID, id domain.ParticipantID)
	Peers(roomID domain.RoomID) []domain.ParticipantID
	IsRegistered(id domain.ParticipantID) bool

	// Broadcast and Send notify bus subscribers; delivery is the transport's job.
	Broadcast(roomID domain.RoomID, env domain.Envelope)
	Send(env domain.Envelope)

	QueueOffer(id domain.ParticipantID, env domain.Envelope)
	// DrainOffers returns the queued envelopes in FIFO order and atomically
	// empties the queue. A second immediate call returns nothing.
	DrainOffers(id domain.ParticipantID) []domain.Envelope
}
