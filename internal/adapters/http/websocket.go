package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/ridekit/internal/adapters/nats"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
)

const (
	wsPingInterval = 30 * time.Second
	wsMaxSubjects  = 8
)

// wsMessage is a client request. Channel defaults to "roundtrip"; an empty
// round_trip_id follows every round trip.
type wsMessage struct {
	Action      string `json:"action"` // subscribe | unsubscribe
	Channel     string `json:"channel"`
	RoundTripID string `json:"round_trip_id"`
}

type wsReply struct {
	Status  string `json:"status,omitempty"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsSubject maps a client message onto the NATS subject to relay.
func wsSubject(m wsMessage) (string, bool) {
	switch m.Channel {
	case "", "roundtrip":
		return natsadapter.SubjectRoundTrip(m.RoundTripID), true
	case "surface":
		return natsadapter.SubjectSurfaceAnalyzed, true
	case "pois":
		return natsadapter.SubjectPOISearched, true
	}
	return "", false
}

// wsSession relays NATS subjects to one websocket client. Writes from NATS
// callbacks and the ping loop share the connection, so they go through mu.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn
	log  *slog.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

func (s *wsSession) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *wsSession) write(kind int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(kind, data)
}

func (s *wsSession) subscribe(subject string) wsReply {
	if _, ok := s.subs[subject]; ok {
		return wsReply{Status: "already subscribed", Subject: subject}
	}
	if len(s.subs) >= wsMaxSubjects {
		return wsReply{Error: "too many subscriptions"}
	}
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := s.write(websocket.TextMessage, msg.Data); err != nil {
			s.log.Debug("ws relay write", "error", err)
		}
	})
	if err != nil {
		return wsReply{Error: "subscribe failed: " + err.Error()}
	}
	s.subs[subject] = sub
	return wsReply{Status: "subscribed", Subject: subject}
}

func (s *wsSession) unsubscribe(subject string) wsReply {
	sub, ok := s.subs[subject]
	if !ok {
		return wsReply{Error: "not subscribed to " + subject}
	}
	_ = sub.Unsubscribe()
	delete(s.subs, subject)
	return wsReply{Status: "unsubscribed", Subject: subject}
}

func (s *wsSession) handle(raw []byte) wsReply {
	var m wsMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return wsReply{Error: "invalid JSON"}
	}
	subject, ok := wsSubject(m)
	if !ok {
		return wsReply{Error: "unknown channel: " + m.Channel}
	}
	switch m.Action {
	case "subscribe":
		return s.subscribe(subject)
	case "unsubscribe":
		return s.unsubscribe(subject)
	}
	return wsReply{Error: "unknown action: " + m.Action}
}

func (s *wsSession) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// WebSocketHandler relays round-trip progress and analysis events.
// Connecting with ?round_trip_id=<id> follows that round trip immediately;
// more subjects are requested with messages such as
// {"action":"subscribe","channel":"roundtrip","round_trip_id":"..."}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		s := &wsSession{
			conn: c,
			nc:   nc,
			log:  slog.With("remote", c.RemoteAddr().String()),
			subs: make(map[string]*nats.Subscription),
		}
		if nc == nil {
			_ = s.send(wsReply{Error: "event stream not configured"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		s.log.Info("ws client connected")
		defer s.close()

		if id := c.Query("round_trip_id"); id != "" {
			reply := s.subscribe(natsadapter.SubjectRoundTrip(id))
			if err := s.send(reply); err != nil || reply.Error != "" {
				return
			}
		}

		done := make(chan struct{})
		defer close(done)
		go s.keepAlive(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := s.send(s.handle(raw)); err != nil {
				break
			}
		}
		s.log.Info("ws client disconnected")
	}
}
