package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoDisplayName = errors.New("client: display name required to join")
	ErrNotConnected  = errors.New("client: no connection bound")
)

type Options struct {
	RoomID      string
	DisplayName string
	// Store defaults to an in-memory slot.
	Store ResumeStore
	// Tick defaults to one second.
	Tick time.Duration
}

// Session is one room view: one connection at a time, one ticker, one
// persisted slot. Every join and tick is persisted before returning.
type Session struct {
	opts Options

	mu       sync.Mutex
	conn     EventConn
	duration int64
	active   bool
	// joined is set once a joinRoom went out on the current conn.
	joined bool
}

func NewSession(opts Options) *Session {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	return &Session{opts: opts}
}

// Bind attaches a new connection. The server sees it as a brand-new member,
// so nothing is joined on it yet.
func (s *Session) Bind(conn EventConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.joined = false
}

// Start joins the room with startDuration and begins accumulating.
func (s *Session) Start(startDuration int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinLocked(startDuration)
}

// AttemptResume rejoins with the persisted duration when the stored record is
// for this room and was active. It does nothing when a join already went out
// on the current connection, so calling it on every reconnect or navigation
// is safe.
func (s *Session) AttemptResume() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joined {
		return false, nil
	}
	rec, ok, err := s.opts.Store.Load()
	if err != nil {
		return false, fmt.Errorf("load resume record: %w", err)
	}
	if !ok || rec.RoomID != s.opts.RoomID || !rec.IsActive {
		return false, nil
	}
	if s.opts.DisplayName == "" {
		s.opts.DisplayName = rec.DisplayName
	}
	if s.opts.DisplayName == "" {
		return false, nil
	}
	if err := s.joinLocked(rec.Duration); err != nil {
		return false, err
	}
	log.Info().Str("module", "client").Str("room", s.opts.RoomID).Int64("duration", rec.Duration).Msg("resumed session")
	return true, nil
}

// Resume continues after Pause. A connection that already joined only
// reports the current duration, so the room sends no second chat replay.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joined {
		return s.joinLocked(s.duration)
	}
	if err := s.conn.Emit(core.EventUpdateDuration, core.UpdateDurationPayload{
		RoomID:   s.opts.RoomID,
		Duration: s.duration,
	}); err != nil {
		return fmt.Errorf("resume room %s: %w", s.opts.RoomID, err)
	}
	s.active = true
	return s.persistLocked()
}

// Pause stops accumulating and marks the record inactive, so a reconnect does
// not rejoin.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return s.persistLocked()
}

// Tick advances the counter by one second and reports it. The new value is
// persisted even when the emit fails.
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.joined {
		return nil
	}
	s.duration++
	var emitErr error
	if s.conn != nil {
		emitErr = s.conn.Emit(core.EventUpdateDuration, core.UpdateDurationPayload{
			RoomID:   s.opts.RoomID,
			Duration: s.duration,
		})
	}
	if err := s.persistLocked(); err != nil {
		return err
	}
	return emitErr
}

// RunTicker calls Tick every Options.Tick until ctx ends or a tick fails.
func (s *Session) RunTicker(ctx context.Context) error {
	t := time.NewTicker(s.opts.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// SendChat posts text to the room. Blank messages are ignored.
func (s *Session) SendChat(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.Emit(core.EventChatMessage, core.ChatMessagePayload{
		RoomID:   s.opts.RoomID,
		UserName: s.opts.DisplayName,
		Message:  text,
	})
}

func (s *Session) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) joinLocked(duration int64) error {
	if s.opts.DisplayName == "" {
		return ErrNoDisplayName
	}
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.Emit(core.EventJoinRoom, core.JoinRoomPayload{
		RoomID:   s.opts.RoomID,
		UserName: s.opts.DisplayName,
		Duration: duration,
	}); err != nil {
		return fmt.Errorf("join room %s: %w", s.opts.RoomID, err)
	}
	s.joined = true
	s.active = true
	s.duration = duration
	return s.persistLocked()
}

func (s *Session) persistLocked() error {
	err := s.opts.Store.Save(ResumeRecord{
		Version:     RecordVersion,
		RoomID:      s.opts.RoomID,
		DisplayName: s.opts.DisplayName,
		IsActive:    s.active,
		Duration:    s.duration,
	})
	if err != nil {
		return fmt.Errorf("persist resume record: %w", err)
	}
	return nil
}
