package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/StudySync/internal/app"
	"github.com/dkeye/StudySync/internal/app/orch"
	"github.com/dkeye/StudySync/internal/config"
	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
	"github.com/dkeye/StudySync/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Mode:         "test",
		Port:         4000,
		StaticPath:   filepath.Join(t.TempDir(), "missing"),
		LogLevel:     "info",
		ReadLimit:    32768,
		PingPeriod:   50 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		SendBuffer:   64,
		ChatCapacity: core.DefaultChatCapacity,
		Backpressure: "kick",
		CORSOrigins:  []string{"*"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	rooms := app.NewRoomManager(cfg.ChatCapacity)
	m := metrics.New()
	m.WatchRooms(rooms.Count)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    rooms,
		Policy:   app.SimplePolicy{},
		Metrics:  m,
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(WithCORS(cfg, SetupRouter(ctx, cfg, o)))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, o
}

type peer struct {
	t  *testing.T
	ws *websocket.Conn
	id domain.ConnID
}

func dialPeer(t *testing.T, srv *httptest.Server) *peer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	p := &peer{t: t, ws: ws}
	t.Cleanup(func() { _ = ws.Close() })

	var welcome core.WelcomePayload
	require.NoError(t, json.Unmarshal(p.expect(core.EventWelcome), &welcome))
	require.NotEmpty(t, welcome.ConnectionID)
	p.id = welcome.ConnectionID
	return p
}

func (p *peer) emit(event string, v any) {
	p.t.Helper()
	frame, err := core.EncodeEvent(event, v)
	require.NoError(p.t, err)
	require.NoError(p.t, p.ws.WriteMessage(websocket.TextMessage, frame))
}

// expect reads the next frame and requires it to be event.
func (p *peer) expect(event string) json.RawMessage {
	p.t.Helper()
	require.NoError(p.t, p.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := p.ws.ReadMessage()
	require.NoError(p.t, err)
	env, err := core.DecodeEnvelope(data)
	require.NoError(p.t, err)
	require.Equal(p.t, event, env.Event, "payload: %s", env.Data)
	return env.Data
}

func (p *peer) expectSnapshot() core.Snapshot {
	p.t.Helper()
	var snap core.Snapshot
	require.NoError(p.t, json.Unmarshal(p.expect(core.EventRoomUpdate), &snap))
	return snap
}

func (p *peer) join(room, name string, duration int64) {
	p.emit(core.EventJoinRoom, core.JoinRoomPayload{RoomID: room, UserName: name, Duration: duration})
}

func TestWS_StudyRoomScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialPeer(t, srv)
	alice.join("abc123", "Alice", 0)
	assert.Equal(t, core.Snapshot{alice.id: {UserName: "Alice", Duration: 0}}, alice.expectSnapshot())
	assert.JSONEq(t, `[]`, string(alice.expect(core.EventChatHistory)))

	alice.emit(core.EventUpdateDuration, core.UpdateDurationPayload{RoomID: "abc123", Duration: 5})
	assert.Equal(t, int64(5), alice.expectSnapshot()[alice.id].Duration)

	bob := dialPeer(t, srv)
	bob.join("abc123", "Bob", 0)
	want := core.Snapshot{
		alice.id: {UserName: "Alice", Duration: 5},
		bob.id:   {UserName: "Bob", Duration: 0},
	}
	assert.Equal(t, want, bob.expectSnapshot())
	assert.JSONEq(t, `[]`, string(bob.expect(core.EventChatHistory)))
	assert.Equal(t, want, alice.expectSnapshot())

	alice.emit(core.EventChatMessage, core.ChatMessagePayload{RoomID: "abc123", UserName: "Alice", Message: "hi"})
	assert.JSONEq(t, `{"userName":"Alice","message":"hi"}`, string(alice.expect(core.EventChatUpdate)))
	assert.JSONEq(t, `{"userName":"Alice","message":"hi"}`, string(bob.expect(core.EventChatUpdate)))

	require.NoError(t, alice.ws.Close())
	assert.Equal(t, core.Snapshot{bob.id: {UserName: "Bob", Duration: 0}}, bob.expectSnapshot())

	back := dialPeer(t, srv)
	assert.NotEqual(t, alice.id, back.id)
	back.join("abc123", "Alice", 5)
	want = core.Snapshot{
		bob.id:  {UserName: "Bob", Duration: 0},
		back.id: {UserName: "Alice", Duration: 5},
	}
	assert.Equal(t, want, back.expectSnapshot())
	assert.JSONEq(t, `[{"userName":"Alice","message":"hi"}]`, string(back.expect(core.EventChatHistory)))
	assert.Equal(t, want, bob.expectSnapshot())
}

func TestWS_UnknownEventsAreIgnored(t *testing.T) {
	srv, o := newTestServer(t)
	p := dialPeer(t, srv)

	require.NoError(t, p.ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	p.emit("leaveRoom", map[string]string{"roomId": "r"})
	p.emit(core.EventUpdateDuration, core.UpdateDurationPayload{RoomID: "ghost", Duration: 3})

	// The connection survives and still serves joins.
	p.join("r", "Alice", 0)
	assert.Len(t, p.expectSnapshot(), 1)
	_, ok := o.Rooms.Get("ghost")
	assert.False(t, ok)
}

func TestHTTP_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHTTP_Rooms(t *testing.T) {
	srv, _ := newTestServer(t)

	p := dialPeer(t, srv)
	p.join("abc123", "Alice", 7)
	p.expectSnapshot()
	p.expect(core.EventChatHistory)
	p.emit(core.EventChatMessage, core.ChatMessagePayload{RoomID: "abc123", UserName: "Alice", Message: "hello"})
	p.expect(core.EventChatUpdate)

	res, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"rooms":[{"id":"abc123","member_count":1,"chat_length":1}]}`, string(body))

	res, err = http.Get(srv.URL + "/api/rooms/abc123")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var room roomResponse
	require.NoError(t, json.Unmarshal(body, &room))
	assert.Equal(t, domain.RoomID("abc123"), room.ID)
	assert.Equal(t, core.Snapshot{p.id: {UserName: "Alice", Duration: 7}}, room.Members)
	assert.Equal(t, []core.ChatEntry{{UserName: "Alice", Message: "hello"}}, room.Chat)

	res, err = http.Get(srv.URL + "/api/rooms/nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// Reading a room never creates it.
	res, err = http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.NotContains(t, string(body), "nope")
}

func TestHTTP_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	p := dialPeer(t, srv)
	p.join("r", "Alice", 0)
	p.expectSnapshot()
	p.expect(core.EventChatHistory)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	text := string(body)
	assert.Contains(t, text, `studysync_events_received_total{event="joinRoom"} 1`)
	assert.Contains(t, text, "studysync_connections 1")
	assert.Contains(t, text, "studysync_rooms 1")
}

func TestHTTP_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/rooms", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestHTTP_MetricsEventLabelsStayBounded(t *testing.T) {
	srv, _ := newTestServer(t)
	p := dialPeer(t, srv)

	const junk = 200
	for i := 0; i < junk; i++ {
		p.emit(fmt.Sprintf("junk-%d", i), map[string]int{"n": i})
	}
	// Events are handled in order, so the join's reply follows every junk frame.
	p.join("r", "Alice", 0)
	p.expectSnapshot()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	var series []string
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "studysync_events_received_total{") {
			series = append(series, line)
		}
	}
	assert.ElementsMatch(t, []string{
		`studysync_events_received_total{event="joinRoom"} 1`,
		fmt.Sprintf(`studysync_events_received_total{event="unknown"} %d`, junk),
	}, series)
}
