package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxMessageLength bounds message bodies.
const MaxMessageLength = 4000

// Message is a direct message between two users.
type Message struct {
	ID         int64      `json:"id"`
	SenderID   int64      `json:"sender_id"`
	ReceiverID int64      `json:"receiver_id"`
	Body       string     `json:"body"`
	BookingID  *int64     `json:"booking_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// NewMessage validates a message before sending.
func NewMessage(senderID, receiverID int64, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if senderID <= 0 || receiverID <= 0 {
		return nil, fmt.Errorf("message: sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("message: cannot send to self")
	}
	if body == "" {
		return nil, fmt.Errorf("message: body is empty")
	}
	if len([]rune(body)) > MaxMessageLength {
		return nil, fmt.Errorf("message: body exceeds %d characters", MaxMessageLength)
	}
	return &Message{SenderID: senderID, ReceiverID: receiverID, Body: body}, nil
}

// Contact is a conversation partner with the latest activity.
type Contact struct {
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	LastMessage   string    `json:"last_message"`
	Unread        int       `json:"unread"`
}
