package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

func (ctl *Controller) handleJoin(pid domain.ParticipantID, conn *wsConn, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		Room   string `json:"room"`
		Name   string `json:"name,omitempty"`
		Source string `json:"source,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomID := domain.RoomID(p.Room)

	_, err := ctl.coord.AddParticipant(roomID, pid, p.Name, domain.AudioSourceType(p.Source))
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		ctl.sendError(conn, "room_not_found")
		return
	case errors.Is(err, core.ErrRoomFull):
		ctl.sendError(conn, "room_full")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "signal").Msg("join failed")
		ctl.sendError(conn, "join_failed")
		return
	}

	ctl.relay.RegisterPeer(roomID, pid)
	log.Info().Str("module", "signal").Str("participant", string(pid)).Str("room", p.Room).Msg("join")

	room, _ := ctl.coord.GetRoom(roomID)
	members := ctl.coord.Participants(roomID)
	ctl.sendJSON(conn, struct {
		Type         string               `json:"type"`
		Room         domain.RoomID        `json:"room"`
		RoomName     string               `json:"room_name"`
		Participants []domain.Participant `json:"participants"`
		Count        int                  `json:"count"`
	}{"room_state", roomID, room.Name, members, len(members)})

	// Offers queued while this participant had no transport are delivered
	// now, oldest first.
	for _, env := range ctl.relay.DrainOffers(pid) {
		ctl.sendJSON(conn, signalFrame{Type: "signal", Envelope: env})
	}
}

// handleLeave drops room membership without tearing the connection down.
func (ctl *Controller) handleLeave(pid domain.ParticipantID, conn *wsConn) {
	log.Info().Str("module", "signal").Str("participant", string(pid)).Msg("leave")
	if roomID, ok := ctl.coord.RoomOf(pid); ok {
		ctl.relay.UnregisterPeer(roomID, pid)
		ctl.coord.RemoveParticipant(roomID, pid)
	}
	ctl.sendJSON(conn, map[string]any{"type": "left"})
}
