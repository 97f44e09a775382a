package signal

import (
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
)

// sendWelcome tells the client its connection id so it can find itself in
// roomUpdate snapshots.
func (ctl *SignalWSController) sendWelcome(sid domain.ConnID, conn core.SignalConnection) {
	ctl.sendEvent(conn, core.EventWelcome, core.WelcomePayload{ConnectionID: sid})
}
