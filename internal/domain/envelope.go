package domain

import "encoding/json"

// SignalKind classifies an envelope. Offer/answer/ice-candidate carry opaque
// negotiation payloads passed through verbatim; mute/unmute/source-change are
// relay-level hints.
type SignalKind string

const (
	KindOffer        SignalKind = "offer"
	KindAnswer       SignalKind = "answer"
	KindICECandidate SignalKind = "ice-candidate"
	KindMute         SignalKind = "mute"
	KindUnmute       SignalKind = "unmute"
	KindSourceChange SignalKind = "source-change"
)

// Envelope is a control message negotiating or managing a direct audio link
// between two participants. The payload is never inspected here.
type Envelope struct {
	Kind      SignalKind      `json:"kind"`
	From      ParticipantID   `json:"from"`
	To        ParticipantID   `json:"to,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Direct reports whether the envelope is addressed to a single participant.
// An empty To means room broadcast.
func (e Envelope) Direct() bool { return e.To != "" }
