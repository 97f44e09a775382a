package client

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type emitted struct {
	Event string
	Data  json.RawMessage
}

// fakeConn records emits and serves events pushed by the test.
type fakeConn struct {
	mu      sync.Mutex
	emits   []emitted
	emitErr error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan Event, 16), done: make(chan struct{})}
}

func (c *fakeConn) Emit(event string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emitErr != nil {
		return c.emitErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.emits = append(c.emits, emitted{Event: event, Data: data})
	return nil
}

func (c *fakeConn) Next() (Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-c.done:
		return Event{}, errors.New("closed")
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) failEmits(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitErr = err
}

func (c *fakeConn) sent() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.emits...)
}

func (c *fakeConn) sentNamed(event string) []emitted {
	var out []emitted
	for _, e := range c.sent() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func decodeAs[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func loadRecord(t *testing.T, s ResumeStore) ResumeRecord {
	t.Helper()
	rec, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	return rec
}
