package protocol

import (
	"errors"
	"testing"
)

func TestParseClientFrameChatMessage(t *testing.T) {
	raw := []byte(`{"type":"chat_message","content":"hello","recipientId":2}`)
	msg, err := ParseClientFrame(raw)
	if err != nil {
		t.Fatalf("ParseClientFrame() error = %v", err)
	}

	chat, ok := msg.(ChatMessage)
	if !ok {
		t.Fatalf("frame type = %T, want ChatMessage", msg)
	}
	if chat.Content != "hello" {
		t.Fatalf("Content = %q, want %q", chat.Content, "hello")
	}
	if chat.RecipientID == nil || *chat.RecipientID != 2 {
		t.Fatalf("RecipientID = %v, want 2", chat.RecipientID)
	}
}

func TestParseClientFrameChatWithoutRecipient(t *testing.T) {
	raw := []byte(`{"type":"chat_message","content":"to everyone"}`)
	msg, err := ParseClientFrame(raw)
	if err != nil {
		t.Fatalf("ParseClientFrame() error = %v", err)
	}
	chat := msg.(ChatMessage)
	if chat.RecipientID != nil {
		t.Fatalf("RecipientID = %v, want nil for broadcast", chat.RecipientID)
	}
}

func TestParseClientFrameRejectsEmptyChat(t *testing.T) {
	_, err := ParseClientFrame([]byte(`{"type":"chat_message","recipientId":2}`))
	if err == nil {
		t.Fatalf("expected validation error for chat without content or fileUrl")
	}
}

func TestParseClientFrameCallOffer(t *testing.T) {
	raw := []byte(`{"type":"call_offer","recipientId":7,"offer":{"type":"offer","sdp":"v=0"},"isVideo":true,"senderId":42}`)
	msg, err := ParseClientFrame(raw)
	if err != nil {
		t.Fatalf("ParseClientFrame() error = %v", err)
	}

	sig, ok := msg.(CallSignal)
	if !ok {
		t.Fatalf("frame type = %T, want CallSignal", msg)
	}
	if sig.Type != TypeCallOffer || sig.RecipientID != 7 || !sig.IsVideo {
		t.Fatalf("unexpected call signal: %+v", sig)
	}
	if len(sig.Offer) == 0 {
		t.Fatalf("offer payload should be preserved")
	}
}

func TestParseClientFrameCallOfferRequiresPayload(t *testing.T) {
	_, err := ParseClientFrame([]byte(`{"type":"call_offer","recipientId":7}`))
	if err == nil {
		t.Fatalf("expected validation error for call_offer without offer")
	}
}

func TestParseClientFrameCallEndWithoutPayload(t *testing.T) {
	msg, err := ParseClientFrame([]byte(`{"type":"call_end","recipientId":7}`))
	if err != nil {
		t.Fatalf("ParseClientFrame() error = %v", err)
	}
	if sig := msg.(CallSignal); sig.Type != TypeCallEnd {
		t.Fatalf("Type = %q, want %q", sig.Type, TypeCallEnd)
	}
}

func TestParseClientFrameMissingRecipient(t *testing.T) {
	_, err := ParseClientFrame([]byte(`{"type":"ice_candidate","candidate":{"candidate":"c"}}`))
	if !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("error = %v, want ErrMissingRecipient", err)
	}
}

func TestParseClientFrameRejectsUnknownType(t *testing.T) {
	_, err := ParseClientFrame([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientFrameRejectsInvalidJSON(t *testing.T) {
	_, err := ParseClientFrame([]byte(`{nope`))
	if err == nil {
		t.Fatalf("expected envelope parse error")
	}
}
