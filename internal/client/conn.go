package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait = 10 * time.Second
	// DefaultReadWait matches the server's pong_wait; the server pings well within it.
	DefaultReadWait = 60 * time.Second
)

// Event is one decoded server frame.
type Event struct {
	Name string
	Data json.RawMessage
}

func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Name, err)
	}
	return nil
}

// EventConn is the client side of one server connection.
type EventConn interface {
	Emit(event string, v any) error
	// Next blocks until the next server event or a transport error.
	Next() (Event, error)
	Close() error
}

// Conn is an EventConn over a gorilla websocket. Any frame from the server,
// pings included, extends the read deadline; silence longer than the read
// wait fails Next so a half-open connection is noticed.
type Conn struct {
	ws  *websocket.Conn
	wmu sync.Mutex

	readWait atomic.Int64
}

func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Conn{ws: ws}
	c.SetReadWait(DefaultReadWait)
	ws.SetPingHandler(func(appData string) error {
		c.extendDeadline()
		err := ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	})
	return c, nil
}

// SetReadWait changes how long Next waits for any server frame.
func (c *Conn) SetReadWait(d time.Duration) {
	c.readWait.Store(int64(d))
	c.extendDeadline()
}

func (c *Conn) extendDeadline() {
	_ = c.ws.SetReadDeadline(time.Now().Add(time.Duration(c.readWait.Load())))
}

func (c *Conn) Emit(event string, v any) error {
	frame, err := core.EncodeEvent(event, v)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

func (c *Conn) Next() (Event, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		c.extendDeadline()
		env, err := core.DecodeEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("skipping bad frame")
			continue
		}
		return Event{Name: env.Event, Data: env.Data}, nil
	}
}

func (c *Conn) Close() error { return c.ws.Close() }
