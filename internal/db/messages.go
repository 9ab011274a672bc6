package db

import (
	"context"
	"database/sql"
	"fmt"

	"kitchenhub/internal/model"
)

const messageColumns = `id, sender_id, receiver_id, body, booking_id, created_at, read_at`

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m         model.Message
		bookingID sql.NullInt64
		readAt    sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &bookingID, &m.CreatedAt, &readAt); err != nil {
		return nil, err
	}
	if bookingID.Valid {
		id := bookingID.Int64
		m.BookingID = &id
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return &m, nil
}

// SendMessage stores m and sets its ID and CreatedAt.
func (db *DB) SendMessage(ctx context.Context, m *model.Message) error {
	now := db.now().UTC()
	var bookingID sql.NullInt64
	if m.BookingID != nil {
		bookingID = sql.NullInt64{Int64: *m.BookingID, Valid: true}
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, body, booking_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.SenderID, m.ReceiverID, m.Body, bookingID, now,
	)
	if err != nil {
		return wrapErr("send message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("send message", err)
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

// Conversation returns messages exchanged between a and b with ID greater
// than afterID, oldest first. Clients poll with the last ID they saw.
func (db *DB) Conversation(ctx context.Context, a, b, afterID int64, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND id > ?
		ORDER BY id LIMIT ?`,
		a, b, b, a, afterID, limit,
	)
	if err != nil {
		return nil, wrapErr("conversation", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, wrapErr("scan message", err)
		}
		messages = append(messages, *m)
	}
	return messages, wrapErr("conversation", rows.Err())
}

// Contacts returns every user userID exchanged messages with, each once,
// most recent conversation first, named from their profile when one exists.
func (db *DB) Contacts(ctx context.Context, userID int64) ([]model.Contact, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.other, TRIM(COALESCE(p.first_name, '') || ' ' || COALESCE(p.last_name, '')),
		       m.body, m.created_at, c.unread
		FROM (
			SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS other,
			       MAX(id) AS last_id,
			       SUM(CASE WHEN receiver_id = ? AND read_at IS NULL THEN 1 ELSE 0 END) AS unread
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY other
		) c
		JOIN messages m ON m.id = c.last_id
		LEFT JOIN profiles p ON p.user_id = c.other
		ORDER BY c.last_id DESC`,
		userID, userID, userID, userID,
	)
	if err != nil {
		return nil, wrapErr("contacts", err)
	}
	defer rows.Close()

	contacts := make([]model.Contact, 0)
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.UserID, &c.Name, &c.LastMessage, &c.LastMessageAt, &c.Unread); err != nil {
			return nil, wrapErr("scan contact", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, wrapErr("contacts", rows.Err())
}

// MarkRead marks messages from sender to receiver up to and including uptoID as read.
func (db *DB) MarkRead(ctx context.Context, receiverID, senderID, uptoID int64) (int64, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE messages SET read_at = ? WHERE receiver_id = ? AND sender_id = ? AND id <= ? AND read_at IS NULL`,
		db.now().UTC(), receiverID, senderID, uptoID,
	)
	if err != nil {
		return 0, wrapErr("mark read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}
