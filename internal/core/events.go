package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/StudySync/internal/domain"
)

// Event names on the wire.
const (
	EventJoinRoom       = "joinRoom"
	EventUpdateDuration = "updateDuration"
	EventChatMessage    = "chatMessage"

	EventRoomUpdate  = "roomUpdate"
	EventChatHistory = "chatHistory"
	EventChatUpdate  = "chatUpdate"
	EventWelcome     = "welcome"
)

// Envelope is the frame shape in both directions: {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	Duration int64  `json:"duration"`
}

type UpdateDurationPayload struct {
	RoomID   string `json:"roomId"`
	Duration int64  `json:"duration"`
}

type ChatMessagePayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	Message  string `json:"message"`
}

// ChatEntry is the wire form of domain.ChatMessage used by chatHistory and chatUpdate.
type ChatEntry struct {
	UserName string `json:"userName"`
	Message  string `json:"message"`
}

type WelcomePayload struct {
	ConnectionID domain.ConnID `json:"connectionId"`
}

// PresenceEntry is one member inside a roomUpdate snapshot.
type PresenceEntry struct {
	UserName string `json:"userName"`
	Duration int64  `json:"duration"`
	IsHost   bool   `json:"isHost,omitempty"`
}

// Snapshot is the full presence of a room keyed by connection id.
type Snapshot map[domain.ConnID]PresenceEntry

func NewChatEntry(m domain.ChatMessage) ChatEntry {
	return ChatEntry{UserName: m.DisplayName, Message: m.Text}
}

// ChatEntries converts a buffer snapshot to its wire form. The result is never nil
// so an empty history encodes as [].
func ChatEntries(msgs []domain.ChatMessage) []ChatEntry {
	out := make([]ChatEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewChatEntry(m))
	}
	return out
}

// EncodeEvent wraps v into an Envelope and marshals it.
func EncodeEvent(event string, v any) (Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	b, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return b, nil
}

// DecodeEnvelope parses a raw inbound frame.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event name")
	}
	return env, nil
}
