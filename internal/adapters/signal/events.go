package signal

import (
	"context"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

type signalFrame struct {
	Type     string          `json:"type"`
	Room     domain.RoomID   `json:"room,omitempty"`
	Envelope domain.Envelope `json:"envelope"`
}

// Run forwards bus notifications to the affected connections until ctx is
// done. One goroutine per controller; frames for a room go out in event order.
func (ctl *Controller) Run(ctx context.Context) {
	ch, cancel := ctl.bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			ctl.forward(ev)
		}
	}
}

func (ctl *Controller) forward(ev core.Event) {
	switch ev.Kind {
	case core.EventSignal:
		ctl.forwardSignal(ev)
	case core.EventParticipantJoined:
		if ev.Participant == nil {
			return
		}
		ctl.fanOut(ev.RoomID, ev.Participant.ID, map[string]any{
			"type":        "member_joined",
			"room":        ev.RoomID,
			"participant": ev.Participant,
		})
	case core.EventParticipantLeft:
		ctl.fanOut(ev.RoomID, ev.ParticipantID, map[string]any{
			"type":        "member_left",
			"room":        ev.RoomID,
			"participant": ev.ParticipantID,
		})
	case core.EventMuteChanged:
		ctl.fanOut(ev.RoomID, "", map[string]any{
			"type":        "mute_changed",
			"room":        ev.RoomID,
			"participant": ev.ParticipantID,
			"muted":       ev.Muted,
		})
	case core.EventVolumeChanged:
		ctl.fanOut(ev.RoomID, "", map[string]any{
			"type":        "volume_changed",
			"room":        ev.RoomID,
			"participant": ev.ParticipantID,
			"volume":      ev.Volume,
		})
	case core.EventRoomDeleted:
		// Tell everyone still registered, then clear their registrations:
		// the room is gone, there is nothing left to relay for it.
		peers := ctl.relay.Peers(ev.RoomID)
		frame := map[string]any{"type": "room_deleted", "room": ev.RoomID}
		for _, pid := range peers {
			ctl.deliver(pid, frame)
			ctl.relay.UnregisterPeer(ev.RoomID, pid)
		}
	case core.EventRoomCreated:
		// Room creation is answered on the request path; no fan-out target.
	}
}

func (ctl *Controller) forwardSignal(ev core.Event) {
	if ev.Envelope == nil {
		return
	}
	env := *ev.Envelope
	if env.Direct() {
		ctl.deliver(env.To, signalFrame{Type: "signal", Room: ev.RoomID, Envelope: env})
		return
	}
	for _, pid := range ctl.relay.Peers(ev.RoomID) {
		if pid == env.From {
			continue
		}
		ctl.deliver(pid, signalFrame{Type: "signal", Room: ev.RoomID, Envelope: env})
	}
}

// fanOut sends a frame to every registered peer of a room except skip.
func (ctl *Controller) fanOut(roomID domain.RoomID, skip domain.ParticipantID, v any) {
	for _, pid := range ctl.relay.Peers(roomID) {
		if skip != "" && pid == skip {
			continue
		}
		ctl.deliver(pid, v)
	}
}

func (ctl *Controller) deliver(pid domain.ParticipantID, v any) {
	conn, ok := ctl.connOf(pid)
	if !ok {
		return
	}
	ctl.sendJSON(conn, v)
}
