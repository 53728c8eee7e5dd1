package signal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

func (ctl *Controller) handlePing(conn *wsConn) {
	ctl.sendJSON(conn, map[string]any{"type": "pong"})
}

func (ctl *Controller) handleMute(pid domain.ParticipantID, conn *wsConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Muted bool   `json:"muted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomID, ok := ctl.coord.RoomOf(pid)
	if !ok {
		ctl.sendError(conn, "not_in_room")
		return
	}
	if !ctl.coord.SetMute(roomID, pid, p.Muted) {
		ctl.sendError(conn, "not_in_room")
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "mute_ack", "muted": p.Muted})
}

func (ctl *Controller) handleVolume(pid domain.ParticipantID, conn *wsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		Volume int    `json:"volume"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomID, ok := ctl.coord.RoomOf(pid)
	if !ok {
		ctl.sendError(conn, "not_in_room")
		return
	}
	if !ctl.coord.SetVolume(roomID, pid, p.Volume) {
		ctl.sendError(conn, "not_in_room")
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "volume_ack", "volume": domain.ClampVolume(p.Volume)})
}

// handleSource announces an audio-source change to the room. The hint rides
// the relay as an envelope; nothing here interprets it.
func (ctl *Controller) handleSource(pid domain.ParticipantID, conn *wsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Source == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomID, ok := ctl.coord.RoomOf(pid)
	if !ok {
		ctl.sendError(conn, "not_in_room")
		return
	}
	ctl.relay.Broadcast(roomID, domain.Envelope{
		Kind:      domain.KindSourceChange,
		From:      pid,
		Payload:   json.RawMessage(fmt.Sprintf(`{"source":%q}`, p.Source)),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (ctl *Controller) handlePoll(pid domain.ParticipantID, conn *wsConn) {
	offers := ctl.relay.DrainOffers(pid)
	log.Debug().Str("module", "signal").Str("participant", string(pid)).Int("offers", len(offers)).Msg("poll")
	ctl.sendJSON(conn, struct {
		Type   string            `json:"type"`
		Offers []domain.Envelope `json:"offers"`
	}{"pending", offers})
}
