package store

import (
	"context"
	"testing"
)

func TestInMemoryCreateMessageAssignsIDAndTimestamp(t *testing.T) {
	s := NewInMemoryStore()
	to := int64(2)
	msg, err := s.CreateMessage(context.Background(), Message{Content: "hi", SenderID: 1, ReceiverID: &to})
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.ID == 0 {
		t.Fatalf("ID should be assigned")
	}
	if msg.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be assigned")
	}
}

func TestInMemoryMessagesBetweenFiltersPair(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	one, two, three := int64(1), int64(2), int64(3)

	mustCreate(t, s, Message{Content: "a->b", SenderID: one, ReceiverID: &two})
	mustCreate(t, s, Message{Content: "b->a", SenderID: two, ReceiverID: &one})
	mustCreate(t, s, Message{Content: "a->c", SenderID: one, ReceiverID: &three})
	mustCreate(t, s, Message{Content: "global", SenderID: one})

	msgs, err := s.MessagesBetween(ctx, one, two, 10)
	if err != nil {
		t.Fatalf("MessagesBetween() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "a->b" || msgs[1].Content != "b->a" {
		t.Fatalf("unexpected order: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestInMemoryMessagesBetweenLimitKeepsNewest(t *testing.T) {
	s := NewInMemoryStore()
	one, two := int64(1), int64(2)
	mustCreate(t, s, Message{Content: "first", SenderID: one, ReceiverID: &two})
	mustCreate(t, s, Message{Content: "second", SenderID: one, ReceiverID: &two})
	mustCreate(t, s, Message{Content: "third", SenderID: one, ReceiverID: &two})

	msgs, err := s.MessagesBetween(context.Background(), one, two, 2)
	if err != nil {
		t.Fatalf("MessagesBetween() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Fatalf("unexpected window: %+v", msgs)
	}
}

func TestInMemoryFindUserByID(t *testing.T) {
	s := NewInMemoryStore()
	s.AddUser(User{ID: 5, Username: "eve"})

	u, err := s.FindUserByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("FindUserByID() error = %v", err)
	}
	if u.Username != "eve" {
		t.Fatalf("Username = %q, want %q", u.Username, "eve")
	}

	if _, err := s.FindUserByID(context.Background(), 99); err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func mustCreate(t *testing.T, s *InMemoryStore, msg Message) {
	t.Helper()
	if _, err := s.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
}
