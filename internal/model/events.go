package model

// EventType identifies the type of a pushed event
type EventType string

const (
	EventConnected EventType = "connected"
	EventRoomState EventType = "room-state"
)

// Event is one frame pushed to room subscribers
type Event struct {
	Type  EventType  `json:"type"`
	Room  RoomCode   `json:"room"`
	State *RoomState `json:"state,omitempty"`
}
