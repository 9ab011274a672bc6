package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"kitchenhub/internal/events"
)

// TelegramSender is the part of the bot API used for notices.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot connects to the Telegram bot API.
func NewBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// Telegram pings users who linked a Telegram chat about their bookings.
type Telegram struct {
	sender TelegramSender
	chats  map[int64]int64
	loc    *time.Location
	logger zerolog.Logger
}

// NewTelegram creates a Telegram notifier. chats maps user IDs to chat IDs;
// users without a chat are skipped.
func NewTelegram(sender TelegramSender, chats map[int64]int64, loc *time.Location, logger zerolog.Logger) *Telegram {
	if loc == nil {
		loc = time.UTC
	}
	return &Telegram{
		sender: sender,
		chats:  chats,
		loc:    loc,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Register subscribes the notifier to booking events. Sends run in the
// background so a slow Bot API never holds up the request that raised the event.
func (t *Telegram) Register(bus Subscriber) {
	async := func(e events.Event) error {
		go func() {
			if err := t.Handle(e); err != nil {
				t.logger.Warn().Err(err).Str("event", e.Type).Msg("telegram notice failed")
			}
		}()
		return nil
	}
	bus.Subscribe(events.BookingRequested, async)
	bus.Subscribe(events.BookingStatusChanged, async)
}

// Handle sends the notice for one event.
func (t *Telegram) Handle(e events.Event) error {
	p, err := events.DecodeBooking(e)
	if err != nil {
		return err
	}
	_, to, ok := recipient(e.Type, p)
	if !ok {
		return nil
	}
	chatID, ok := t.chats[to]
	if !ok {
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, Text(e.Type, p, t.loc))
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	t.logger.Debug().Int64("chat_id", chatID).Int64("booking_id", p.Booking.ID).Msg("telegram notice sent")
	return nil
}
