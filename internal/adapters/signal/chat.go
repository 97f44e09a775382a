package signal

import (
	"encoding/json"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleChat(sid domain.ConnID, data json.RawMessage) {
	var p core.ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad chat payload")
		return
	}
	ctl.Orch.Chat(sid, domain.RoomID(p.RoomID), p.UserName, p.Message)
}
