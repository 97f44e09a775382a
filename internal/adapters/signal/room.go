package signal

import (
	"encoding/json"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(sid domain.ConnID, data json.RawMessage) {
	var p core.JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).
		Str("name", p.UserName).Int64("duration", p.Duration).Msg("join")
	ctl.Orch.Join(sid, domain.RoomID(p.RoomID), p.UserName, p.Duration)
}

func (ctl *SignalWSController) handleUpdateDuration(sid domain.ConnID, data json.RawMessage) {
	var p core.UpdateDurationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad updateDuration payload")
		return
	}
	ctl.Orch.UpdateDuration(sid, domain.RoomID(p.RoomID), p.Duration)
}
