package core

import (
	"github.com/dkeye/StudySync/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

func (r PublishResult) merge(o PublishResult) PublishResult {
	r.SentTo += o.SentTo
	r.Dropped = append(r.Dropped, o.Dropped...)
	return r
}

// RoomService is the core-facing API of a room.
// It owns the membership set and the chat buffer but never touches transport resources.
//
// Every mutator publishes under the room lock, so each member observes
// roomUpdate, chatHistory and chatUpdate frames in registry order.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MembersSnapshot() Snapshot
	ChatSnapshot() []domain.ChatMessage

	// AddMember stores ms (replacing an entry with the same connection id),
	// broadcasts roomUpdate to the whole room and replays chatHistory to ms only.
	AddMember(ms MemberSession) PublishResult
	// UpdateDuration overwrites the member's duration and broadcasts roomUpdate.
	// It is a no-op returning false when the member is absent.
	UpdateDuration(id domain.ConnID, duration int64) (PublishResult, bool)
	// RemoveMember deletes the member and broadcasts roomUpdate to the rest.
	// It is a no-op returning false when the member is absent.
	RemoveMember(id domain.ConnID) (PublishResult, bool)
	// AppendChat stores msg and broadcasts chatUpdate to every member.
	AppendChat(msg domain.ChatMessage) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	ChatLength  int           `json:"chat_length"`
}

// RoomManager is the registry of rooms. Rooms are created on demand and live
// for the whole process.
type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	Count() int
}
