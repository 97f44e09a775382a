package orch

import (
	"context"

	"github.com/dkeye/StudySync/internal/app"
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/dkeye/StudySync/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator applies inbound events to the room registry. Each connection's
// events arrive from its own read loop, so they are handled in send order.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Metrics  *metrics.Metrics
}

// Connect registers a freshly accepted connection.
func (o *Orchestrator) Connect(sid domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc, client string) {
	o.Registry.Bind(sid, sig, cancel, client)
	o.Metrics.ConnectionOpened()
}

// settle records delivery stats and applies the backpressure policy to every
// member whose queue rejected a frame. Must be called without room locks held.
func (o *Orchestrator) settle(room core.RoomService, res core.PublishResult) {
	o.Metrics.FramesPublished(res.SentTo, len(res.Dropped))
	if len(res.Dropped) == 0 || o.Policy == nil {
		return
	}
	seen := make(map[domain.ConnID]struct{}, len(res.Dropped))
	for _, sid := range res.Dropped {
		if _, dup := seen[sid]; dup {
			continue
		}
		seen[sid] = struct{}{}
		switch o.Policy.OnBackPressure(room, sid) {
		case app.KickMember:
			if o.Registry.Kick(sid) {
				o.Metrics.Kicked()
			}
		case app.DropFrame, app.NoAction:
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().ID)).Msg("frame dropped")
		}
	}
}
