// Package domain contains entities without logic, just meta-data.
package domain

import "time"

type (
	RoomID        string
	ParticipantID string
)

// DefaultMaxParticipants applies when a room is created without an
// explicit capacity. Capacity is never allowed below 1.
const DefaultMaxParticipants = 50

type Room struct {
	ID               RoomID    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	LinkedResourceID string    `json:"linked_resource_id,omitempty"`
	MaxParticipants  int       `json:"max_participants"`
	CreatedAt        time.Time `json:"created_at"`
	IsActive         bool      `json:"is_active"`
}
