package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dborella/peerline/internal/store"
)

// FrameType identifies websocket payload variants.
type FrameType string

const (
	// Inbound.
	TypeChatMessage  FrameType = "chat_message"
	TypeCallOffer    FrameType = "call_offer"
	TypeCallAnswer   FrameType = "call_answer"
	TypeCallReject   FrameType = "call_reject"
	TypeCallEnd      FrameType = "call_end"
	TypeICECandidate FrameType = "ice_candidate"

	// Outbound.
	TypeOnlineUsers  FrameType = "online_users"
	TypeNewMessage   FrameType = "new_message"
	TypeMessageError FrameType = "message_error"
	TypeCallError    FrameType = "call_error"
)

var (
	ErrUnsupportedType  = errors.New("unsupported frame type")
	ErrMissingRecipient = errors.New("call signal missing recipientId")
)

type Envelope struct {
	Type FrameType `json:"type"`
}

// ChatMessage is a client request to deliver a text or file message.
// RecipientID is nil when the message is addressed to everyone.
type ChatMessage struct {
	Type        FrameType `json:"type"`
	Content     string    `json:"content"`
	RecipientID *int64    `json:"recipientId,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	FileSize    int64     `json:"fileSize,omitempty"`
	FileType    string    `json:"fileType,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
}

// CallSignal covers all call negotiation frames. The SDP and ICE payloads are
// opaque to the relay and forwarded untouched; SenderID is stamped from the
// authenticated session before forwarding, never trusted from the client.
type CallSignal struct {
	Type        FrameType       `json:"type"`
	RecipientID int64           `json:"recipientId"`
	SenderID    int64           `json:"senderId,omitempty"`
	Offer       json.RawMessage `json:"offer,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Candidate   json.RawMessage `json:"candidate,omitempty"`
	IsVideo     bool            `json:"isVideo,omitempty"`
}

// PresenceEntry is one online contact in an online_users push.
type PresenceEntry struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

type OnlineUsers struct {
	Type FrameType       `json:"type"`
	Data []PresenceEntry `json:"data"`
}

type NewMessage struct {
	Type FrameType     `json:"type"`
	Data store.Message `json:"data"`
}

// MessageError tells a sender their chat message could not be persisted.
type MessageError struct {
	Type  FrameType `json:"type"`
	Error string    `json:"error"`
}

// CallError tells a caller their signal could not reach the recipient.
type CallError struct {
	Type  FrameType `json:"type"`
	Error string    `json:"error"`
}

// ParseClientFrame decodes one inbound frame into its typed variant,
// validating the minimal shape each variant requires.
func ParseClientFrame(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Content == "" && msg.FileURL == "" {
			return nil, errors.New("chat_message requires content or fileUrl")
		}
		return msg, nil
	case TypeCallOffer, TypeCallAnswer, TypeCallReject, TypeCallEnd, TypeICECandidate:
		var msg CallSignal
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.RecipientID == 0 {
			return nil, ErrMissingRecipient
		}
		switch env.Type {
		case TypeCallOffer:
			if len(msg.Offer) == 0 {
				return nil, errors.New("call_offer requires offer payload")
			}
		case TypeCallAnswer:
			if len(msg.Answer) == 0 {
				return nil, errors.New("call_answer requires answer payload")
			}
		case TypeICECandidate:
			if len(msg.Candidate) == 0 {
				return nil, errors.New("ice_candidate requires candidate payload")
			}
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
