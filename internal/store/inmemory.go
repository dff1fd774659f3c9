package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]User
	messages []Message
	nextID   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[int64]User), nextID: 1}
}

// AddUser seeds a user profile; used at startup in store-less dev mode.
func (s *InMemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *InMemoryStore) CreateMessage(_ context.Context, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.nextID
	s.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *InMemoryStore) MessagesBetween(_ context.Context, userA, userB int64, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Message
	for _, m := range s.messages {
		if m.ReceiverID == nil {
			continue
		}
		if (m.SenderID == userA && *m.ReceiverID == userB) || (m.SenderID == userB && *m.ReceiverID == userA) {
			matched = append(matched, m)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (s *InMemoryStore) FindUserByID(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) Close() error { return nil }
