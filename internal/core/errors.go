package core

import "errors"

var (
	// ErrRoomExists is returned when creating a room whose id is already registered.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when joining an unregistered room.
	// Lookups return empty/false instead of this error.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room's capacity.
	ErrRoomFull = errors.New("room full")
)
