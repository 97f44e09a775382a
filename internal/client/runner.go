package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Dialer opens a new connection to the server.
type Dialer func(ctx context.Context) (EventConn, error)

// Runner keeps a Session connected. After every (re)connect it attempts a
// resume, so a dropped transport rejoins under a new connection id with the
// last persisted duration.
type Runner struct {
	Session        *Session
	Dial           Dialer
	ReconnectDelay time.Duration
	// StartFresh joins with zero duration on the first connection when there
	// is nothing to resume.
	StartFresh bool
	// OnEvent sees every server event. It runs on the read goroutine.
	OnEvent func(Event)
}

func (r *Runner) Run(ctx context.Context) error {
	delay := r.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	first := true
	for {
		conn, err := r.Dial(ctx)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Dur("retry_in", delay).Msg("dial failed")
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		r.Session.Bind(conn)
		resumed, err := r.Session.AttemptResume()
		if err != nil {
			log.Error().Err(err).Str("module", "client").Msg("resume failed")
		}
		if !resumed && first && r.StartFresh {
			if err := r.Session.Start(0); err != nil {
				log.Error().Err(err).Str("module", "client").Msg("join failed")
			}
		}
		first = false

		err = r.serve(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("module", "client").Dur("retry_in", delay).Msg("connection lost")
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// serve pumps one connection until it fails or ctx ends.
func (r *Runner) serve(ctx context.Context, conn EventConn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Session.RunTicker(gctx) })
	g.Go(func() error {
		for {
			ev, err := conn.Next()
			if err != nil {
				return err
			}
			if r.OnEvent != nil {
				r.OnEvent(ev)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})
	return g.Wait()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
