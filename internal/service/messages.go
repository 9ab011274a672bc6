package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kitchenhub/internal/model"
)

// MessageStore is the message persistence collaborator.
type MessageStore interface {
	SendMessage(ctx context.Context, m *model.Message) error
	Conversation(ctx context.Context, a, b, afterID int64, limit int) ([]model.Message, error)
	Contacts(ctx context.Context, userID int64) ([]model.Contact, error)
	MarkRead(ctx context.Context, receiverID, senderID, uptoID int64) (int64, error)
}

// MessageService delivers direct messages. Clients poll Conversation with
// the last message ID they have seen.
type MessageService struct {
	store  MessageStore
	retry  RetryPolicy
	logger zerolog.Logger
}

// NewMessageService creates a message service.
func NewMessageService(store MessageStore, retry RetryPolicy, logger zerolog.Logger) *MessageService {
	return &MessageService{
		store:  store,
		retry:  retry.withDefaults(),
		logger: logger.With().Str("component", "message_service").Logger(),
	}
}

// Send stores a message from the session's user to receiverID.
func (s *MessageService) Send(ctx context.Context, sess model.Session, receiverID int64, body string, bookingID *int64) (*model.Message, error) {
	return s.deliver(ctx, sess.UserID, receiverID, body, bookingID)
}

// Notify sends a message on behalf of senderID without a session. Used for
// booking notices and reminders.
func (s *MessageService) Notify(ctx context.Context, senderID, receiverID int64, body string, bookingID *int64) (*model.Message, error) {
	return s.deliver(ctx, senderID, receiverID, body, bookingID)
}

func (s *MessageService) deliver(ctx context.Context, senderID, receiverID int64, body string, bookingID *int64) (*model.Message, error) {
	m, err := model.NewMessage(senderID, receiverID, body)
	if err != nil {
		return nil, invalid(err)
	}
	m.BookingID = bookingID

	if _, err := call(ctx, s.retry, "send message", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.SendMessage(ctx, m)
	}); err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("message_id", m.ID).Int64("sender_id", senderID).Int64("receiver_id", receiverID).Msg("message sent")
	return m, nil
}

// Conversation returns new messages between the session's user and withID
// after afterID, and marks the incoming ones as read.
func (s *MessageService) Conversation(ctx context.Context, sess model.Session, withID, afterID int64, limit int) ([]model.Message, error) {
	if withID <= 0 || withID == sess.UserID {
		return nil, invalid(fmt.Errorf("conversation partner %d", withID))
	}
	msgs, err := read(ctx, s.retry, "conversation", func(ctx context.Context) ([]model.Message, error) {
		return s.store.Conversation(ctx, sess.UserID, withID, afterID, limit)
	})
	if err != nil {
		return nil, err
	}

	var lastIncoming int64
	for _, m := range msgs {
		if m.ReceiverID == sess.UserID && m.ID > lastIncoming {
			lastIncoming = m.ID
		}
	}
	if lastIncoming > 0 {
		if _, err := s.store.MarkRead(ctx, sess.UserID, withID, lastIncoming); err != nil {
			// The messages were delivered; unread counters catch up on the next poll.
			s.logger.Warn().Err(err).Int64("user_id", sess.UserID).Msg("mark read failed")
		}
	}
	return msgs, nil
}

// Contacts lists the session user's conversation partners. A positive
// target is placed first, even without prior messages, so a booking page can
// open a chat with the other party.
func (s *MessageService) Contacts(ctx context.Context, sess model.Session, target int64) ([]model.Contact, error) {
	contacts, err := read(ctx, s.retry, "contacts", func(ctx context.Context) ([]model.Contact, error) {
		return s.store.Contacts(ctx, sess.UserID)
	})
	if err != nil {
		return nil, err
	}
	if target <= 0 || target == sess.UserID {
		return contacts, nil
	}

	for i, c := range contacts {
		if c.UserID == target {
			if i > 0 {
				copy(contacts[1:i+1], contacts[:i])
				contacts[0] = c
			}
			return contacts, nil
		}
	}
	return append([]model.Contact{{UserID: target}}, contacts...), nil
}

