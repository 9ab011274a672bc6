package db

import (
	"context"

	"kitchenhub/internal/model"
)

// GetProfile loads the profile of userID. Users who never saved one get ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := db.QueryRowContext(ctx,
		`SELECT user_id, first_name, last_name, phone, updated_at FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.UpdatedAt)
	if err != nil {
		return nil, wrapErr("get profile", err)
	}
	return &p, nil
}

// SaveProfile inserts or replaces the profile of p.UserID.
func (db *DB) SaveProfile(ctx context.Context, p *model.Profile) error {
	p.UpdatedAt = db.now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			updated_at = excluded.updated_at`,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.UpdatedAt,
	)
	return wrapErr("save profile", err)
}

// ProfileCounts returns how many bookings userID made as a renter and how
// many kitchens they own.
func (db *DB) ProfileCounts(ctx context.Context, userID int64) (bookings, kitchens int, err error) {
	err = db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM bookings WHERE renter_id = ?),
			(SELECT COUNT(*) FROM kitchens WHERE owner_id = ?)`,
		userID, userID,
	).Scan(&bookings, &kitchens)
	if err != nil {
		return 0, 0, wrapErr("profile counts", err)
	}
	return bookings, kitchens, nil
}
