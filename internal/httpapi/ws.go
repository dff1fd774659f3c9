package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dborella/peerline/internal/auth"
	"github.com/dborella/peerline/internal/store"
)

// Admission close codes, distinguishable by the client.
const (
	CloseMissingCredential = 4001
	CloseInvalidCredential = 4002
	CloseUnknownUser       = 4003
)

var ErrBackpressure = errors.New("send queue full")

// handleWS is the single admission gate: upgrade, verify the credential,
// resolve the user profile, register the session, then run the blocking read
// loop until the connection dies. Every failure path closes with a specific
// code and never leaves a half-registered session behind.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if token == "" {
		s.metrics.ConnectionEvents.WithLabelValues("rejected").Inc()
		closeWith(raw, CloseMissingCredential, "missing credential")
		return
	}

	userID, err := s.verifier.VerifyToken(token)
	if err != nil {
		s.metrics.ConnectionEvents.WithLabelValues("rejected").Inc()
		reason := "invalid credential"
		if errors.Is(err, auth.ErrExpiredToken) {
			reason = "expired credential"
		}
		closeWith(raw, CloseInvalidCredential, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StoreTimeout)
	user, err := s.store.FindUserByID(ctx, userID)
	cancel()
	if err != nil {
		s.metrics.ConnectionEvents.WithLabelValues("rejected").Inc()
		if errors.Is(err, store.ErrNotFound) {
			closeWith(raw, CloseUnknownUser, "unknown user")
		} else {
			closeWith(raw, websocket.CloseInternalServerErr, "user lookup failed")
		}
		return
	}

	conn := newWSConn(raw, s.cfg.SendBuffer, s.cfg.WriteTimeout)

	// Register supersedes any prior connection for this user and broadcasts
	// the new presence snapshot, reaching this connection as well.
	sess := s.registry.Register(user, conn)
	s.metrics.ConnectionEvents.WithLabelValues("connected").Inc()
	s.metrics.OnlineUsers.Set(float64(s.registry.Count()))
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("session registered")

	pongWait := 3 * s.cfg.HeartbeatInterval
	raw.SetReadLimit(s.cfg.ReadLimit)
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		sess.MarkAlive()
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := raw.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.hub.HandleFrame(r.Context(), sess, data)
	}

	conn.Close()
	s.hub.Drop(sess)
	log.Info().Int64("user_id", user.ID).Msg("session closed")
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

type outItem struct {
	payload any
	ping    bool
}

// wsConn adapts a gorilla connection to the presence.Conn capability. All
// writes, pings included, go through one writer goroutine; Send and Ping
// never block and report backpressure instead.
type wsConn struct {
	conn         *websocket.Conn
	send         chan outItem
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newWSConn(conn *websocket.Conn, buffer int, writeTimeout time.Duration) *wsConn {
	c := &wsConn{
		conn:         conn,
		send:         make(chan outItem, buffer),
		writeTimeout: writeTimeout,
	}
	go c.writePump()
	return c
}

func (c *wsConn) Send(v any) error {
	return c.enqueue(outItem{payload: v})
}

func (c *wsConn) Ping() error {
	return c.enqueue(outItem{ping: true})
}

func (c *wsConn) enqueue(item outItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- item:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

func (c *wsConn) writePump() {
	for item := range c.send {
		deadline := time.Now().Add(c.writeTimeout)
		var err error
		if item.ping {
			err = c.conn.WriteControl(websocket.PingMessage, nil, deadline)
		} else {
			_ = c.conn.SetWriteDeadline(deadline)
			err = c.conn.WriteJSON(item.payload)
		}
		if err != nil {
			// Closing the transport unblocks the read loop, which then
			// deregisters the session.
			_ = c.conn.Close()
			return
		}
	}
}
