package orch

import (
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join adds sid to roomID with the supplied starting duration. A resumed
// client joins exactly like a new one; there is no dedup by display name, so a
// resumed join racing ahead of its stale connection's disconnect leaves both
// entries in the room until that disconnect lands.
func (o *Orchestrator) Join(sid domain.ConnID, roomID domain.RoomID, displayName string, duration int64) {
	sig, ok := o.Registry.Signal(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join from unknown session")
		return
	}
	room := o.Rooms.GetOrCreate(roomID)
	o.Registry.AddRoom(sid, roomID)
	member := domain.NewMember(sid, displayName, duration)
	res := room.AddMember(core.NewMemberSession(member, sig))
	o.settle(room, res)
}

// UpdateDuration overwrites sid's duration in roomID. Unknown rooms and
// members are ignored; the value itself is never checked.
func (o *Orchestrator) UpdateDuration(sid domain.ConnID, roomID domain.RoomID, duration int64) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, ok := room.UpdateDuration(sid, duration)
	if !ok {
		return
	}
	o.settle(room, res)
}

// OnDisconnect removes sid from every room it joined and rebroadcasts each.
func (o *Orchestrator) OnDisconnect(sid domain.ConnID) {
	rooms, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	o.Metrics.ConnectionClosed()
	for _, roomID := range rooms {
		room, ok := o.Rooms.Get(roomID)
		if !ok {
			continue
		}
		if res, ok := room.RemoveMember(sid); ok {
			o.settle(room, res)
		}
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("disconnected")
}
