// Package notify turns booking events into user-facing notices: direct
// messages in the in-app mailbox and optional Telegram pings.
package notify

import (
	"fmt"
	"time"

	"kitchenhub/internal/events"
	"kitchenhub/internal/model"
)

const timeLayout = "02.01.2006 15:04"

// Subscriber is the part of the event bus notifiers attach to.
type Subscriber interface {
	Subscribe(eventType string, handler events.EventHandler)
}

// recipient returns who should hear about p and on whose behalf.
func recipient(eventType string, p events.BookingPayload) (from, to int64, ok bool) {
	b := p.Booking
	switch eventType {
	case events.BookingRequested:
		return b.RenterID, b.OwnerID, b.OwnerID != 0 && b.OwnerID != b.RenterID
	case events.BookingStatusChanged:
		switch p.ActorID {
		case 0:
			return 0, 0, false
		case b.RenterID:
			return b.RenterID, b.OwnerID, b.OwnerID != 0 && b.OwnerID != b.RenterID
		default:
			return p.ActorID, b.RenterID, p.ActorID != b.RenterID
		}
	}
	return 0, 0, false
}

func describe(b model.Booking, loc *time.Location) string {
	title := b.KitchenTitle
	if title == "" {
		title = fmt.Sprintf("kitchen #%d", b.KitchenID)
	}
	return fmt.Sprintf("%s, %s - %s", title, b.StartTime.In(loc).Format(timeLayout), b.EndTime.In(loc).Format("15:04"))
}

// Text renders the notice for a booking event.
func Text(eventType string, p events.BookingPayload, loc *time.Location) string {
	b := p.Booking
	switch eventType {
	case events.BookingRequested:
		return fmt.Sprintf("New booking request #%d: %s. Total %s.", b.ID, describe(b, loc), b.TotalPrice.StringFixed(2))
	case events.BookingStatusChanged:
		return fmt.Sprintf("Booking #%d (%s) is now %s.", b.ID, describe(b, loc), b.Status)
	}
	return fmt.Sprintf("Booking #%d updated.", b.ID)
}
