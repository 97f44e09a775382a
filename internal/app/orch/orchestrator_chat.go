package orch

import (
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

// Chat appends a message to roomID and broadcasts it to every member. The
// sender does not need to be a member and the name is taken as given.
func (o *Orchestrator) Chat(sid domain.ConnID, roomID domain.RoomID, displayName, text string) {
	room := o.Rooms.GetOrCreate(roomID)
	res := room.AppendChat(domain.ChatMessage{DisplayName: displayName, Text: text})
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("chat message")
	o.settle(room, res)
}
