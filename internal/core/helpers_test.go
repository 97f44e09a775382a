package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []Frame
	err    error
	closed bool
}

func (f *fakeSignal) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.frames))
	for _, fr := range f.frames {
		env, err := DecodeEnvelope(fr)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (f *fakeSignal) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// lastSnapshot returns the most recent roomUpdate this connection received.
func (f *fakeSignal) lastSnapshot(t *testing.T) Snapshot {
	t.Helper()
	envs := f.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == EventRoomUpdate {
			var snap Snapshot
			require.NoError(t, json.Unmarshal(envs[i].Data, &snap))
			return snap
		}
	}
	t.Fatalf("no roomUpdate received")
	return nil
}

func decodeChat(t *testing.T, env Envelope) []ChatEntry {
	t.Helper()
	var entries []ChatEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	return entries
}
