package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
)

const bookingSelect = `SELECT b.id, b.kitchen_id, b.renter_id, b.start_at, b.end_at, b.status, b.total_price,
	b.reminder_sent, b.created_at, b.updated_at, k.title, k.owner_id
	FROM bookings b JOIN kitchens k ON k.id = b.kitchen_id`

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b              model.Booking
		startAt, endAt int64
		status, total  string
	)
	err := row.Scan(&b.ID, &b.KitchenID, &b.RenterID, &startAt, &endAt, &status, &total,
		&b.ReminderSent, &b.CreatedAt, &b.UpdatedAt, &b.KitchenTitle, &b.OwnerID)
	if err != nil {
		return nil, err
	}
	b.StartTime, b.EndTime = unixTime(startAt), unixTime(endAt)
	b.Status = model.Status(status)
	if b.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("booking %d total: %w", b.ID, err)
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, op, where string, args ...any) ([]model.Booking, error) {
	rows, err := db.QueryContext(ctx, bookingSelect+" WHERE "+where, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, wrapErr(op, rows.Err())
}

// ListBookings returns bookings of a kitchen that overlap [from, to),
// skipping the excluded statuses, ordered by start.
func (db *DB) ListBookings(ctx context.Context, kitchenID int64, from, to time.Time, exclude ...model.Status) ([]model.Booking, error) {
	where := "b.kitchen_id = ? AND b.start_at < ? AND b.end_at > ?"
	args := []any{kitchenID, to.Unix(), from.Unix()}
	if len(exclude) > 0 {
		where += " AND b.status NOT IN (" + placeholders(len(exclude)) + ")"
		for _, s := range exclude {
			args = append(args, string(s))
		}
	}
	return db.queryBookings(ctx, "list bookings", where+" ORDER BY b.start_at", args...)
}

// GetBooking returns a booking by ID or booking.ErrNotFound.
func (db *DB) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+" WHERE b.id = ?", id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get booking %d", id), err)
	}
	return b, nil
}

// CreateBooking inserts b after re-checking for overlaps inside one
// immediate transaction. A concurrent overlapping insert makes this return a
// *booking.ConflictError; the kitchen must exist.
func (db *DB) CreateBooking(ctx context.Context, b *model.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin create booking", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM kitchens WHERE id = ?`, b.KitchenID).Scan(&exists); err != nil {
		return wrapErr("check kitchen", err)
	}
	if exists == 0 {
		return fmt.Errorf("create booking: kitchen %d: %w", b.KitchenID, booking.ErrNotFound)
	}

	var conflictID int64
	var cStart, cEnd int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, start_at, end_at FROM bookings
		WHERE kitchen_id = ? AND status != 'cancelled' AND start_at < ? AND end_at > ?
		ORDER BY start_at LIMIT 1`,
		b.KitchenID, b.EndTime.Unix(), b.StartTime.Unix(),
	).Scan(&conflictID, &cStart, &cEnd)
	switch {
	case err == nil:
		return &booking.ConflictError{KitchenID: b.KitchenID, Start: unixTime(cStart), End: unixTime(cEnd), BookingID: conflictID}
	case !errors.Is(err, sql.ErrNoRows):
		return wrapErr("check overlap", err)
	}

	now := db.now().UTC()
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (kitchen_id, renter_id, start_at, end_at, status, total_price, reminder_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		b.KitchenID, b.RenterID, b.StartTime.Unix(), b.EndTime.Unix(), string(b.Status), b.TotalPrice.String(), now, now,
	)
	if err != nil {
		if isOverlapAbort(err) {
			return &booking.ConflictError{KitchenID: b.KitchenID, Start: b.StartTime, End: b.EndTime}
		}
		return wrapErr("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit booking", err)
	}

	b.ID = id
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateBookingStatus moves a booking from one status to another. The write
// only applies if the stored status still equals from.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, from, to model.Status) (*model.Booking, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), db.now().UTC(), id, string(from),
	)
	if err != nil {
		return nil, wrapErr("update booking status", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		current, err := db.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("booking %d is %s, expected %s: %w: %w",
			id, current.Status, from, ErrConcurrentModification, booking.ErrConflict)
	}
	return db.GetBooking(ctx, id)
}

// ListRenterBookings returns all bookings made by renterID, newest start first.
func (db *DB) ListRenterBookings(ctx context.Context, renterID int64) ([]model.Booking, error) {
	return db.queryBookings(ctx, "list renter bookings", "b.renter_id = ? ORDER BY b.start_at DESC", renterID)
}

// ListOwnerBookings returns bookings of every kitchen owned by ownerID, newest start first.
func (db *DB) ListOwnerBookings(ctx context.Context, ownerID int64) ([]model.Booking, error) {
	return db.queryBookings(ctx, "list owner bookings", "k.owner_id = ? ORDER BY b.start_at DESC", ownerID)
}

// ListOwnerBookingsBetween returns an owner's bookings starting in [from, to).
func (db *DB) ListOwnerBookingsBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Booking, error) {
	return db.queryBookings(ctx, "list owner bookings between",
		"k.owner_id = ? AND b.start_at >= ? AND b.start_at < ? ORDER BY b.start_at",
		ownerID, from.Unix(), to.Unix())
}

// CountActiveForRenter counts pending or confirmed bookings of a renter that have not ended.
func (db *DB) CountActiveForRenter(ctx context.Context, renterID int64, now time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE renter_id = ? AND status IN ('pending', 'confirmed') AND end_at > ?`,
		renterID, now.Unix(),
	).Scan(&n)
	return n, wrapErr("count active bookings", err)
}

// ListBookingsToComplete returns confirmed bookings whose end is at or before now.
func (db *DB) ListBookingsToComplete(ctx context.Context, now time.Time) ([]model.Booking, error) {
	return db.queryBookings(ctx, "list bookings to complete",
		"b.status = 'confirmed' AND b.end_at <= ? ORDER BY b.end_at", now.Unix())
}

// ListUpcomingForReminders returns confirmed bookings starting in (now, now+lead]
// that have not been reminded yet.
func (db *DB) ListUpcomingForReminders(ctx context.Context, now time.Time, lead time.Duration) ([]model.Booking, error) {
	return db.queryBookings(ctx, "list upcoming bookings",
		"b.status = 'confirmed' AND b.reminder_sent = 0 AND b.start_at > ? AND b.start_at <= ? ORDER BY b.start_at",
		now.Unix(), now.Add(lead).Unix())
}

// MarkReminderSent flags a booking as reminded.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE bookings SET reminder_sent = 1, updated_at = ? WHERE id = ?`, db.now().UTC(), id)
	return wrapErr("mark reminder sent", err)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
