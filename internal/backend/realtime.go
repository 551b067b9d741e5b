package backend

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Realtime change feed over a single multiplexed websocket. The wire
// protocol is channel-based: the client joins one topic per table, sends a
// heartbeat frame every 30s, and receives JSON change frames with the event
// type and the old/new row payloads.

const (
	realtimeHeartbeat    = 30 * time.Second
	realtimeWriteTimeout = 10 * time.Second
)

type realtimeFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ref     int             `json:"ref"`
}

type changePayload struct {
	Type      string          `json:"type"` // INSERT | UPDATE | DELETE
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

type realtimeConn struct {
	conn *websocket.Conn

	mu      sync.Mutex
	ref     int
	subs    map[string][]func(Change) // table -> callbacks
	closed  bool
	writeMu sync.Mutex
}

// Subscribe registers onChange for the table, dialing the feed on first use.
func (c *Client) Subscribe(ctx context.Context, table string, onChange func(Change)) (func(), error) {
	table = strings.TrimSpace(table)

	c.mu.Lock()
	rt := c.realtime
	c.mu.Unlock()

	if rt == nil {
		var err error
		rt, err = c.dialRealtime(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.realtime = rt
		c.mu.Unlock()
	}

	if err := rt.join(table); err != nil {
		return nil, &Error{Op: "subscribe", Table: table, Message: err.Error()}
	}
	cancel := rt.addCallback(table, onChange)
	return cancel, nil
}

func (c *Client) dialRealtime(ctx context.Context) (*realtimeConn, error) {
	u := strings.Replace(c.baseURL, "http", "ws", 1) + "/realtime/v1/websocket?apikey=" + c.apiKey
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, &Error{Op: "subscribe", Message: "dial realtime: " + err.Error()}
	}
	rt := &realtimeConn{
		conn: conn,
		subs: map[string][]func(Change){},
	}
	go rt.readLoop()
	go rt.heartbeatLoop()
	return rt, nil
}

func (r *realtimeConn) nextRef() int {
	r.ref++
	return r.ref
}

func (r *realtimeConn) send(f realtimeFrame) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(realtimeWriteTimeout))
	return r.conn.WriteJSON(f)
}

func (r *realtimeConn) join(table string) error {
	r.mu.Lock()
	_, joined := r.subs[table]
	ref := r.nextRef()
	r.mu.Unlock()
	if joined {
		return nil
	}
	return r.send(realtimeFrame{
		Topic:   "realtime:public:" + table,
		Event:   "phx_join",
		Payload: json.RawMessage(`{}`),
		Ref:     ref,
	})
}

func (r *realtimeConn) addCallback(table string, fn func(Change)) func() {
	r.mu.Lock()
	r.subs[table] = append(r.subs[table], fn)
	idx := len(r.subs[table]) - 1
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			cbs := r.subs[table]
			if idx < len(cbs) {
				cbs[idx] = nil
			}
		})
	}
}

func (r *realtimeConn) heartbeatLoop() {
	t := time.NewTicker(realtimeHeartbeat)
	defer t.Stop()
	for range t.C {
		r.mu.Lock()
		closed := r.closed
		ref := r.nextRef()
		r.mu.Unlock()
		if closed {
			return
		}
		if err := r.send(realtimeFrame{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: ref}); err != nil {
			return
		}
	}
}

func (r *realtimeConn) readLoop() {
	for {
		var f realtimeFrame
		if err := r.conn.ReadJSON(&f); err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if !closed {
				log.Printf("backend: realtime feed closed: %v", err)
			}
			return
		}
		if f.Event != "postgres_changes" && f.Event != "INSERT" && f.Event != "UPDATE" && f.Event != "DELETE" {
			continue
		}
		var p changePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			continue
		}
		if p.Type == "" {
			p.Type = f.Event
		}
		if p.Table == "" {
			p.Table = strings.TrimPrefix(f.Topic, "realtime:public:")
		}

		ch := Change{Table: p.Table, Old: p.OldRecord, New: p.Record}
		switch strings.ToUpper(p.Type) {
		case "INSERT":
			ch.Type = ChangeInsert
		case "UPDATE":
			ch.Type = ChangeUpdate
		case "DELETE":
			ch.Type = ChangeDelete
		default:
			continue
		}

		r.mu.Lock()
		cbs := append([]func(Change){}, r.subs[ch.Table]...)
		r.mu.Unlock()
		for _, fn := range cbs {
			if fn != nil {
				fn(ch)
			}
		}
	}
}

func (r *realtimeConn) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	_ = r.conn.Close()
}
