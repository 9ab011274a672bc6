// Package report exports an owner's bookings as an Excel workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
)

// BookingStore lists an owner's bookings overlapping a range.
type BookingStore interface {
	ListOwnerBookingsBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Booking, error)
}

var bookingColumns = []string{"ID", "Kitchen", "Renter", "Date", "Start", "End", "Hours", "Status", "Total"}

var summaryColumns = []string{"Kitchen", "Bookings", "Hours", "Revenue"}

// Generator builds monthly owner reports.
type Generator struct {
	store  BookingStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(store BookingStore, logger zerolog.Logger) *Generator {
	return &Generator{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// MonthRange returns [first day of month, first day of next month) in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

type kitchenTotals struct {
	title    string
	bookings int
	hours    float64
	revenue  decimal.Decimal
}

// OwnerMonth writes the owner's bookings for one month to w as xlsx.
// Cancelled bookings are listed but excluded from the summary.
func (g *Generator) OwnerMonth(ctx context.Context, sess model.Session, year int, month time.Month, loc *time.Location, w io.Writer) error {
	if !sess.IsOwner() {
		return fmt.Errorf("reports are available to owners: %w", booking.ErrForbidden)
	}
	if month < time.January || month > time.December {
		return &booking.InvalidIntervalError{Reason: fmt.Sprintf("month %d out of range", month)}
	}
	if loc == nil {
		loc = time.UTC
	}

	from, to := MonthRange(year, month, loc)
	list, err := g.store.ListOwnerBookingsBetween(ctx, sess.UserID, from, to)
	if err != nil {
		return err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })

	sw := newSheetWriter()
	defer sw.Close()

	if err := sw.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := sw.WriteHeader(bookingColumns); err != nil {
		return err
	}

	now := g.now()
	totals := map[int64]*kitchenTotals{}
	var order []int64
	for i := range list {
		b := &list[i]
		start, end := b.StartTime.In(loc), b.EndTime.In(loc)
		hours := b.Duration().Hours()
		total, _ := b.TotalPrice.Float64()
		status := booking.DisplayStatus(b, now)

		if err := sw.WriteRow([]any{
			b.ID, b.KitchenTitle, b.RenterID,
			start.Format("2006-01-02"), start.Format("15:04"), end.Format("15:04"),
			hours, string(status), total,
		}); err != nil {
			return err
		}

		if b.Status == model.StatusCancelled {
			continue
		}
		t, ok := totals[b.KitchenID]
		if !ok {
			t = &kitchenTotals{title: b.KitchenTitle}
			totals[b.KitchenID] = t
			order = append(order, b.KitchenID)
		}
		t.bookings++
		t.hours += hours
		t.revenue = t.revenue.Add(b.TotalPrice)
	}

	if err := sw.AddSheet("Summary"); err != nil {
		return err
	}
	if err := sw.WriteHeader(summaryColumns); err != nil {
		return err
	}
	for _, id := range order {
		t := totals[id]
		revenue, _ := t.revenue.Float64()
		if err := sw.WriteRow([]any{t.title, t.bookings, t.hours, revenue}); err != nil {
			return err
		}
	}

	if err := sw.Save(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	g.logger.Info().Int64("owner_id", sess.UserID).Int("year", year).Int("month", int(month)).Int("bookings", len(list)).Msg("owner report generated")
	return nil
}
