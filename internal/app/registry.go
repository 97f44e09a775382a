package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Signal core.SignalConnection
	Rooms  map[domain.RoomID]struct{}
	Cancel context.CancelFunc
	// Client is the browser token cookie, kept for log correlation only.
	Client string
	Kicked bool
}

// Registry tracks live connections and the rooms each one joined, so a
// disconnect can clean up every room it touched.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ConnID]*sessionEntry)}
}

func (r *Registry) Bind(sid domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc, client string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Signal: sig,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
		Client: client,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", client).Msg("bound signal")
}

func (r *Registry) Signal(sid domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

// AddRoom records that sid joined roomID. It returns false for unknown sessions.
func (r *Registry) AddRoom(sid domain.ConnID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Rooms[roomID] = struct{}{}
	return true
}

func (r *Registry) RoomsOf(sid domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	return sortedRooms(e.Rooms)
}

// Unbind forgets sid and returns the rooms it had joined.
func (r *Registry) Unbind(sid domain.ConnID) ([]domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(e.Rooms)).Msg("unbind session")
	return sortedRooms(e.Rooms), true
}

// Kick cancels the session context and closes its transport. The gateway's
// read loop then runs the regular disconnect path. Only the first kick of a
// session reports true; the member keeps failing sends until it is unbound.
func (r *Registry) Kick(sid domain.ConnID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if !ok || e.Kicked {
		r.mu.Unlock()
		return false
	}
	e.Kicked = true
	r.mu.Unlock()
	if e.Cancel != nil {
		e.Cancel()
	}
	if e.Signal != nil {
		e.Signal.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("kicked session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func sortedRooms(set map[domain.RoomID]struct{}) []domain.RoomID {
	out := make([]domain.RoomID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
