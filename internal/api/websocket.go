package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/gorilla/websocket"
)

const (
	// replayCount is how many buffered events a new stream starts with.
	replayCount = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Renderer clients connect from any origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventFilter narrows an event stream. Empty fields match everything.
type eventFilter struct {
	session string
	prefix  string
	level   string
}

// filterFromQuery reads ?session=, ?prefix= and ?level=.
func filterFromQuery(r *http.Request) eventFilter {
	q := r.URL.Query()
	return eventFilter{
		session: q.Get("session"),
		prefix:  q.Get("prefix"),
		level:   q.Get("level"),
	}
}

func (f eventFilter) match(e events.Event) bool {
	if f.prefix != "" && !strings.HasPrefix(e.Name, f.prefix) {
		return false
	}
	if f.level != "" && e.Level != f.level {
		return false
	}
	if f.session != "" {
		id, _ := e.Fields["session_id"].(string)
		if id != f.session {
			return false
		}
	}
	return true
}

func (f eventFilter) apply(in []events.Event) []events.Event {
	out := make([]events.Event, 0, len(in))
	for _, e := range in {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// eventStream writes matching events to one websocket peer.
type eventStream struct {
	conn   *websocket.Conn
	filter eventFilter
}

func (s *eventStream) send(e events.Event) error {
	if !s.filter.match(e) {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *eventStream) ping() error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// readLoop drains the peer so pongs and close frames are processed. It closes
// done when the peer goes away.
func (s *eventStream) readLoop(done chan<- struct{}) {
	defer close(done)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsEventsHandler streams live events over a websocket, optionally narrowed to
// one session's effects with ?session=.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stream := &eventStream{conn: conn, filter: filter}
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	for _, e := range events.RecentEvents(replayCount) {
		if err := stream.send(e); err != nil {
			log.Printf("ws replay failed: %v", err)
			return
		}
	}

	done := make(chan struct{})
	go stream.readLoop(done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := stream.send(e); err != nil {
				log.Printf("ws write event failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}
