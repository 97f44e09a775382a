package core

import (
	"sync"

	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room     *domain.Room
	mu       sync.RWMutex
	members  map[domain.ConnID]MemberSession
	chat     *ChatBuffer
	markHost bool
}

// RoomOption tunes a room at creation.
type RoomOption func(*roomImpl)

// WithHostFlag marks a member as host when it joins an otherwise empty room.
// Without it isHost is never set and snapshots carry no host field.
func WithHostFlag() RoomOption {
	return func(r *roomImpl) { r.markHost = true }
}

func NewRoomService(room *domain.Room, chatCapacity int, opts ...RoomOption) RoomService {
	r := &roomImpl{
		room:    room,
		members: make(map[domain.ConnID]MemberSession),
		chat:    NewChatBuffer(chatCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) MembersSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *roomImpl) ChatSnapshot() []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chat.Snapshot()
}

func (r *roomImpl) AddMember(ms MemberSession) PublishResult {
	meta := ms.Meta()
	r.mu.Lock()
	defer r.mu.Unlock()

	_, rejoin := r.members[meta.ConnID]
	others := len(r.members)
	if rejoin {
		others--
	}
	meta.IsHost = r.markHost && others == 0
	r.members[meta.ConnID] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(meta.ConnID)).
		Str("name", meta.DisplayName).Int64("duration", meta.Duration).Bool("host", meta.IsHost).Msg("member added")

	res := r.publishLocked(EventRoomUpdate, r.snapshotLocked())
	return res.merge(r.sendLocked(meta.ConnID, ms.Signal(), EventChatHistory, ChatEntries(r.chat.Snapshot())))
}

func (r *roomImpl) UpdateDuration(id domain.ConnID, duration int64) (PublishResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.members[id]
	if !ok {
		return PublishResult{}, false
	}
	ms.Meta().Duration = duration
	return r.publishLocked(EventRoomUpdate, r.snapshotLocked()), true
}

func (r *roomImpl) RemoveMember(id domain.ConnID) (PublishResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return PublishResult{}, false
	}
	delete(r.members, id)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(id)).Msg("member removed")
	return r.publishLocked(EventRoomUpdate, r.snapshotLocked()), true
}

func (r *roomImpl) AppendChat(msg domain.ChatMessage) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chat.Append(msg) {
		log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Msg("chat buffer full, evicted oldest")
	}
	return r.publishLocked(EventChatUpdate, NewChatEntry(msg))
}

func (r *roomImpl) snapshotLocked() Snapshot {
	out := make(Snapshot, len(r.members))
	for id, ms := range r.members {
		m := ms.Meta()
		out[id] = PresenceEntry{UserName: m.DisplayName, Duration: m.Duration, IsHost: m.IsHost}
	}
	return out
}

// publishLocked fans one frame out to every member, the originator included.
func (r *roomImpl) publishLocked(event string, v any) PublishResult {
	frame, err := EncodeEvent(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.room.ID)).Msg("encode broadcast")
		return PublishResult{}
	}
	res := PublishResult{}
	for id, ms := range r.members {
		if err := ms.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("event", event).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) sendLocked(id domain.ConnID, sc SignalConnection, event string, v any) PublishResult {
	frame, err := EncodeEvent(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.room.ID)).Msg("encode direct send")
		return PublishResult{}
	}
	if err := sc.TrySend(frame); err != nil {
		return PublishResult{Dropped: []domain.ConnID{id}}
	}
	return PublishResult{SentTo: 1}
}
