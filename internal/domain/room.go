package domain

// RoomID is the client-chosen, shareable room token. It is the only access
// control the system has; no format is enforced.
type RoomID string

type Room struct {
	ID RoomID
}

// ChatMessage is one line of room chat. Position in the buffer is its identity.
type ChatMessage struct {
	DisplayName string
	Text        string
}
