package core

import "github.com/nicksbar/YAHAML-sub001/internal/domain"

type EventKind string

const (
	EventRoomCreated       EventKind = "room_created"
	EventRoomDeleted       EventKind = "room_deleted"
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
	EventMuteChanged       EventKind = "mute_changed"
	EventVolumeChanged     EventKind = "volume_changed"
	EventSignal            EventKind = "signal"
)

// Event is a lifecycle or signaling notification. Only the fields relevant
// to the kind are set; RoomID is empty for a direct (participant-addressed)
// signal.
type Event struct {
	Kind          EventKind
	RoomID        domain.RoomID
	Room          *domain.Room
	Participant   *domain.Participant
	ParticipantID domain.ParticipantID
	Muted         bool
	Volume        int
	Envelope      *domain.Envelope
}

// EventSource is the subscriber side of the notification bus. The returned
// function cancels the subscription; the channel is not closed by it.
type EventSource interface {
	Subscribe() (<-chan Event, func())
}
