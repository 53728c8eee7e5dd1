package domain

import "time"

// AudioSourceType is the origin category of a participant's audio.
type AudioSourceType string

const (
	SourceMicrophone  AudioSourceType = "microphone"
	SourceRadio       AudioSourceType = "radio"
	SourceJanusBridge AudioSourceType = "janus-bridge"
	SourceHTTPStream  AudioSourceType = "http-stream"
	SourceSystem      AudioSourceType = "system"
)

const (
	MinVolume = 0
	MaxVolume = 100
)

// Participant is room-scoped state: created on join, mutated in place by
// mute/volume operations, removed on leave or room deletion.
type Participant struct {
	ID          ParticipantID   `json:"id"`
	DisplayName string          `json:"display_name"`
	JoinedAt    time.Time       `json:"joined_at"`
	IsActive    bool            `json:"is_active"`
	IsMuted     bool            `json:"is_muted"`
	Volume      int             `json:"volume"`
	Source      AudioSourceType `json:"audio_source_type"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(id ParticipantID, displayName string, source AudioSourceType, joinedAt time.Time) *Participant {
	if source == "" {
		source = SourceMicrophone
	}
	return &Participant{
		ID:          id,
		DisplayName: displayName,
		JoinedAt:    joinedAt,
		IsActive:    true,
		Volume:      MaxVolume,
		Source:      source,
	}
}

// ClampVolume bounds v to [MinVolume, MaxVolume].
func ClampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
