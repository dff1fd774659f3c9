package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// User is the contact profile resolved for a connected peer.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

// Message is one persisted chat message. ReceiverID is nil for messages
// addressed to everyone rather than a single peer.
type Message struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	SenderID   int64     `json:"senderId"`
	ReceiverID *int64    `json:"receiverId"`
	FileURL    string    `json:"fileUrl,omitempty"`
	FileSize   int64     `json:"fileSize,omitempty"`
	FileType   string    `json:"fileType,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists chat messages and resolves user profiles.
type Store interface {
	CreateMessage(ctx context.Context, msg Message) (Message, error)
	MessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]Message, error)
	FindUserByID(ctx context.Context, id int64) (User, error)
	Close() error
}
