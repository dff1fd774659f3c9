package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dborella/peerline/internal/observability"
	"github.com/dborella/peerline/internal/presence"
	"github.com/dborella/peerline/internal/protocol"
	"github.com/dborella/peerline/internal/store"
)

// Hub routes inbound frames from registered sessions: chat messages are
// persisted then fanned out, call signals are relayed to their recipient, and
// every registry change is broadcast as a fresh online_users snapshot.
type Hub struct {
	registry     *presence.Registry
	store        store.Store
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func New(registry *presence.Registry, st store.Store, metrics *observability.Metrics, storeTimeout time.Duration) *Hub {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	h := &Hub{
		registry:     registry,
		store:        st,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
	registry.SetChangeHook(h.broadcastPresence)
	return h
}

// HandleFrame decodes and dispatches one inbound frame. Malformed frames are
// dropped with a warning; they never terminate the connection.
func (h *Hub) HandleFrame(ctx context.Context, sess *presence.Session, raw []byte) {
	parsed, err := protocol.ParseClientFrame(raw)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sess.User.ID).Msg("dropping malformed frame")
		h.metrics.DroppedFrames.WithLabelValues("malformed").Inc()
		return
	}

	switch msg := parsed.(type) {
	case protocol.ChatMessage:
		h.metrics.WSMessages.WithLabelValues("inbound", string(msg.Type)).Inc()
		h.deliverChat(ctx, sess, msg)
	case protocol.CallSignal:
		h.metrics.WSMessages.WithLabelValues("inbound", string(msg.Type)).Inc()
		h.relaySignal(sess, msg)
	}
}

// Drop deregisters the session after its connection is gone. Safe to call
// more than once and after supersession.
func (h *Hub) Drop(sess *presence.Session) {
	if h.registry.Deregister(sess) {
		h.metrics.ConnectionEvents.WithLabelValues("disconnected").Inc()
		h.metrics.OnlineUsers.Set(float64(h.registry.Count()))
	}
}

// deliverChat persists the message, then pushes the stored record to the
// recipient (if online) and echoes it to the sender so both ends render the
// server-assigned id and timestamp. With no recipient the stored record goes
// to every live session.
func (h *Hub) deliverChat(ctx context.Context, sess *presence.Session, msg protocol.ChatMessage) {
	cctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	stored, err := h.store.CreateMessage(cctx, store.Message{
		Content:    msg.Content,
		SenderID:   sess.User.ID,
		ReceiverID: msg.RecipientID,
		FileURL:    msg.FileURL,
		FileSize:   msg.FileSize,
		FileType:   msg.FileType,
		FileName:   msg.FileName,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", sess.User.ID).Msg("persist chat message failed")
		h.metrics.ChatDeliveries.WithLabelValues("persist_error").Inc()
		h.send(sess, protocol.MessageError{Type: protocol.TypeMessageError, Error: "message could not be saved"})
		return
	}

	out := protocol.NewMessage{Type: protocol.TypeNewMessage, Data: stored}

	if msg.RecipientID == nil {
		for _, peer := range h.registry.Sessions() {
			h.send(peer, out)
		}
		h.metrics.ChatDeliveries.WithLabelValues("broadcast").Inc()
		return
	}

	if peer, ok := h.registry.Lookup(*msg.RecipientID); ok {
		h.send(peer, out)
		h.metrics.ChatDeliveries.WithLabelValues("delivered").Inc()
	} else {
		h.metrics.ChatDeliveries.WithLabelValues("offline").Inc()
	}
	if *msg.RecipientID != sess.User.ID {
		h.send(sess, out)
	}
}

// relaySignal forwards one call negotiation frame to its recipient. SenderID
// is stamped from the authenticated session so a client cannot spoof another
// caller. An unreachable recipient is reported back instead of dropped, so
// the caller's UI can say "user not available" rather than hang.
func (h *Hub) relaySignal(sess *presence.Session, sig protocol.CallSignal) {
	sig.SenderID = sess.User.ID

	peer, ok := h.registry.Lookup(sig.RecipientID)
	if !ok {
		h.metrics.CallRelays.WithLabelValues("unreachable").Inc()
		h.send(sess, protocol.CallError{Type: protocol.TypeCallError, Error: "user not available"})
		return
	}
	if err := h.send(peer, sig); err != nil {
		h.metrics.CallRelays.WithLabelValues("write_error").Inc()
		h.send(sess, protocol.CallError{Type: protocol.TypeCallError, Error: "user not available"})
		return
	}
	h.metrics.CallRelays.WithLabelValues("relayed").Inc()
}

// broadcastPresence pushes the snapshot to every live session. Per-session
// write failures are logged and skipped; the broadcast continues.
func (h *Hub) broadcastPresence(snap []protocol.PresenceEntry) {
	h.metrics.OnlineUsers.Set(float64(len(snap)))
	frame := protocol.OnlineUsers{Type: protocol.TypeOnlineUsers, Data: snap}
	for _, peer := range h.registry.Sessions() {
		h.send(peer, frame)
	}
}

func (h *Hub) send(sess *presence.Session, v any) error {
	err := sess.Send(v)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sess.User.ID).Msg("outbound frame dropped")
		h.metrics.DroppedFrames.WithLabelValues("backpressure").Inc()
		return err
	}
	if t, ok := frameTypeOf(v); ok {
		h.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
	}
	return nil
}

func frameTypeOf(v any) (protocol.FrameType, bool) {
	switch m := v.(type) {
	case protocol.OnlineUsers:
		return m.Type, true
	case protocol.NewMessage:
		return m.Type, true
	case protocol.MessageError:
		return m.Type, true
	case protocol.CallError:
		return m.Type, true
	case protocol.CallSignal:
		return m.Type, true
	default:
		return "", false
	}
}
