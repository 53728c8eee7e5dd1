package signal

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/domain"
)

// relayEnvelope forwards offer/answer/candidate traffic. The payload is an
// opaque negotiation blob; it passes through untouched. A direct envelope to
// a peer with no registration yet is buffered for their next poll or join.
func (ctl *Controller) relayEnvelope(pid domain.ParticipantID, conn *wsConn, kind domain.SignalKind, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		To      string          `json:"to,omitempty"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", string(kind)).Msg("bad signaling payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	env := domain.Envelope{
		Kind:      kind,
		From:      pid,
		To:        domain.ParticipantID(p.To),
		Payload:   p.Payload,
		Timestamp: time.Now().UnixMilli(),
	}

	if env.Direct() {
		if ctl.relay.IsRegistered(env.To) {
			ctl.relay.Send(env)
		} else {
			log.Debug().Str("module", "signal").Str("to", p.To).Str("kind", string(kind)).Msg("target not registered, queueing")
			ctl.relay.QueueOffer(env.To, env)
		}
		return
	}

	roomID, ok := ctl.coord.RoomOf(pid)
	if !ok {
		ctl.sendError(conn, "not_in_room")
		return
	}
	ctl.relay.Broadcast(roomID, env)
}
