package app

import (
	"sort"
	"sync"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl keeps every room ever joined for the life of the process.
// Empty rooms are not reclaimed.
type RoomManagerImpl struct {
	mu           sync.RWMutex
	rooms        map[domain.RoomID]core.RoomService
	chatCapacity int
	roomOpts     []core.RoomOption
}

// NewRoomManager creates rooms with chatCapacity and opts applied.
func NewRoomManager(chatCapacity int, opts ...core.RoomOption) core.RoomManager {
	return &RoomManagerImpl{
		rooms:        make(map[domain.RoomID]core.RoomService),
		chatCapacity: chatCapacity,
		roomOpts:     opts,
	}
}

func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(&domain.Room{ID: id}, f.chatCapacity, f.roomOpts...)
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Int("rooms", len(f.rooms)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount(), ChatLength: len(r.ChatSnapshot())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *RoomManagerImpl) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
