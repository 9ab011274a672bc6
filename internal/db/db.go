// Package db is the sqlite-backed store for kitchens, bookings and messages.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"kitchenhub/internal/booking"
)

// ErrConcurrentModification is returned when a row changed between read and write.
var ErrConcurrentModification = errors.New("concurrent modification")

// DB wraps sql.DB for the kitchen marketplace.
type DB struct {
	*sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewDB opens the database at path and runs migrations.
//
// Every transaction starts with BEGIN IMMEDIATE, so a check-then-insert inside
// one transaction is serialized against other writers.
func NewDB(path string, logger zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := &DB{
		DB:     sqlDB,
		logger: logger.With().Str("component", "db").Logger(),
		now:    time.Now,
	}
	db.logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kitchens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			kitchen_type TEXT NOT NULL DEFAULT 'open',
			area_sqm REAL NOT NULL DEFAULT 0,
			price_per_hour TEXT NOT NULL DEFAULT '0',
			open_hour INTEGER NOT NULL DEFAULT 8,
			close_hour INTEGER NOT NULL DEFAULT 22,
			amenities TEXT NOT NULL DEFAULT '[]',
			image_urls TEXT NOT NULL DEFAULT '[]',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			seeded BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// start_at and end_at are unix seconds so range predicates compare numerically.
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kitchen_id INTEGER NOT NULL,
			renter_id INTEGER NOT NULL,
			start_at INTEGER NOT NULL,
			end_at INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
			total_price TEXT NOT NULL DEFAULT '0',
			reminder_sent BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CHECK (end_at > start_at),
			FOREIGN KEY (kitchen_id) REFERENCES kitchens(id)
		)`,

		// Last line of defence against double booking: no two non-cancelled
		// bookings of one kitchen may overlap.
		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap
			BEFORE INSERT ON bookings
			WHEN NEW.status != 'cancelled'
		BEGIN
			SELECT RAISE(ABORT, 'booking_overlap')
			WHERE EXISTS (
				SELECT 1 FROM bookings
				WHERE kitchen_id = NEW.kitchen_id
				  AND status != 'cancelled'
				  AND start_at < NEW.end_at
				  AND end_at > NEW.start_at
			);
		END`,

		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id INTEGER NOT NULL,
			receiver_id INTEGER NOT NULL,
			body TEXT NOT NULL,
			booking_id INTEGER,
			created_at DATETIME NOT NULL,
			read_at DATETIME,
			FOREIGN KEY (booking_id) REFERENCES bookings(id)
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			user_id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_kitchens_owner ON kitchens(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_kitchens_city ON kitchens(city, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_kitchen_times ON bookings(kitchen_id, start_at, end_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_renter ON bookings(renter_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status_end ON bookings(status, end_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_reminder ON bookings(reminder_sent, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, read_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// wrapErr maps driver errors onto the booking error kinds.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, booking.ErrNotFound)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &booking.TransientError{Op: op, Err: err}
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return &booking.TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isOverlapAbort(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint && strings.Contains(se.Error(), "booking_overlap")
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
