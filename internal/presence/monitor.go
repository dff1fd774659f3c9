package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartMonitor runs the heartbeat janitor: every interval it prunes sessions
// that missed the previous probe and sends a fresh probe to the rest. A dead
// connection is detected within two intervals.
func (r *Registry) StartMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

func (r *Registry) sweep() {
	var stale []*Session
	for _, s := range r.Sessions() {
		// Swap marks the session awaiting; if it already was, the probe
		// sent last sweep went unanswered.
		if s.awaiting.Swap(true) {
			stale = append(stale, s)
			continue
		}
		if err := s.conn.Ping(); err != nil {
			stale = append(stale, s)
		}
	}

	for _, s := range stale {
		log.Warn().Int64("user_id", s.User.ID).Time("last_pong", s.LastPongAt()).Msg("pruning unresponsive session")
		s.conn.Close()
		r.Deregister(s)
	}
}
