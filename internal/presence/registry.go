package presence

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dborella/peerline/internal/protocol"
	"github.com/dborella/peerline/internal/store"
)

// Conn is the send/close capability of one live transport connection.
// Send and Ping must not block; implementations queue writes and report
// backpressure as an error.
type Conn interface {
	Send(v any) error
	Ping() error
	Close()
}

// Session is one live authenticated connection for a user. It is owned by the
// Registry from Register until Deregister.
type Session struct {
	User store.User

	conn     Conn
	awaiting atomic.Bool
	lastPong atomic.Int64
}

func newSession(user store.User, conn Conn) *Session {
	s := &Session{User: user, conn: conn}
	s.lastPong.Store(time.Now().UnixNano())
	return s
}

func (s *Session) Send(v any) error { return s.conn.Send(v) }

// MarkAlive records a liveness probe response.
func (s *Session) MarkAlive() {
	s.awaiting.Store(false)
	s.lastPong.Store(time.Now().UnixNano())
}

func (s *Session) LastPongAt() time.Time {
	return time.Unix(0, s.lastPong.Load())
}

// Registry is the authoritative in-memory map of live sessions, at most one
// per user.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	onChange func([]protocol.PresenceEntry)
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// SetChangeHook installs the presence-broadcast callback. It is invoked
// outside the registry lock with the snapshot taken at mutation time.
func (r *Registry) SetChangeHook(hook func([]protocol.PresenceEntry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = hook
}

// Register inserts a new session for the user. A prior session for the same
// user is superseded: its connection is closed and the new one takes the slot,
// so fan-out never hits a stale handle.
func (r *Registry) Register(user store.User, conn Conn) *Session {
	s := newSession(user, conn)

	r.mu.Lock()
	prev := r.sessions[user.ID]
	r.sessions[user.ID] = s
	snap := r.snapshotLocked()
	hook := r.onChange
	r.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	}
	if hook != nil {
		hook(snap)
	}
	return s
}

// Deregister removes the session if it is still the registered one for its
// user. Calling it twice, or after supersession, is a no-op, so the close
// path and the liveness monitor can both call it without double broadcasts.
func (r *Registry) Deregister(s *Session) bool {
	r.mu.Lock()
	cur, ok := r.sessions[s.User.ID]
	if !ok || cur != s {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.User.ID)
	snap := r.snapshotLocked()
	hook := r.onChange
	r.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return true
}

func (r *Registry) Lookup(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Snapshot projects the current online set.
func (r *Registry) Snapshot() []protocol.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Sessions returns the live sessions for fan-out; writes happen on the
// returned slice outside the lock.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) snapshotLocked() []protocol.PresenceEntry {
	out := make([]protocol.PresenceEntry, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, protocol.PresenceEntry{
			UserID:       s.User.ID,
			Username:     s.User.Username,
			ProfileImage: s.User.ProfileImage,
			Bio:          s.User.Bio,
		})
	}
	return out
}
