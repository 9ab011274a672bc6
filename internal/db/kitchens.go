package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
)

const kitchenColumns = `id, owner_id, title, description, address, city, category, kitchen_type,
	area_sqm, price_per_hour, open_hour, close_hour, amenities, image_urls, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKitchen(row rowScanner) (*model.Kitchen, error) {
	var (
		k                   model.Kitchen
		price               string
		kitchenType         string
		amenities, imageURL string
	)
	err := row.Scan(
		&k.ID, &k.OwnerID, &k.Title, &k.Description, &k.Address, &k.City, &k.Category, &kitchenType,
		&k.AreaSqm, &price, &k.OpenHour, &k.CloseHour, &amenities, &imageURL, &k.IsActive, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	k.KitchenType = model.KitchenType(kitchenType)
	if k.PricePerHour, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("kitchen %d price: %w", k.ID, err)
	}
	if err := json.Unmarshal([]byte(amenities), &k.Amenities); err != nil {
		return nil, fmt.Errorf("kitchen %d amenities: %w", k.ID, err)
	}
	if err := json.Unmarshal([]byte(imageURL), &k.ImageURLs); err != nil {
		return nil, fmt.Errorf("kitchen %d image urls: %w", k.ID, err)
	}
	return &k, nil
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// CreateKitchen inserts a kitchen and sets its ID and timestamps.
func (db *DB) CreateKitchen(ctx context.Context, k *model.Kitchen) error {
	now := db.now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO kitchens (owner_id, title, description, address, city, category, kitchen_type,
			area_sqm, price_per_hour, open_hour, close_hour, amenities, image_urls, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.OwnerID, k.Title, k.Description, k.Address, k.City, k.Category, string(k.KitchenType),
		k.AreaSqm, k.PricePerHour.String(), k.OpenHour, k.CloseHour,
		encodeList(k.Amenities), encodeList(k.ImageURLs), k.IsActive, now, now,
	)
	if err != nil {
		return wrapErr("create kitchen", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("create kitchen", err)
	}
	k.ID = id
	k.CreatedAt, k.UpdatedAt = now, now
	return nil
}

// GetKitchen returns a kitchen by ID or booking.ErrNotFound.
func (db *DB) GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error) {
	k, err := scanKitchen(db.QueryRowContext(ctx, `SELECT `+kitchenColumns+` FROM kitchens WHERE id = ?`, id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get kitchen %d", id), err)
	}
	return k, nil
}

// UpdateKitchen overwrites the mutable fields of a kitchen.
func (db *DB) UpdateKitchen(ctx context.Context, k *model.Kitchen) error {
	now := db.now().UTC()
	res, err := db.ExecContext(ctx, `
		UPDATE kitchens SET title = ?, description = ?, address = ?, city = ?, category = ?, kitchen_type = ?,
			area_sqm = ?, price_per_hour = ?, open_hour = ?, close_hour = ?, amenities = ?, image_urls = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		k.Title, k.Description, k.Address, k.City, k.Category, string(k.KitchenType),
		k.AreaSqm, k.PricePerHour.String(), k.OpenHour, k.CloseHour,
		encodeList(k.Amenities), encodeList(k.ImageURLs), k.IsActive, now, k.ID,
	)
	if err != nil {
		return wrapErr("update kitchen", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update kitchen %d: %w", k.ID, booking.ErrNotFound)
	}
	k.UpdatedAt = now
	return nil
}

// ListKitchens returns kitchens matching filter, newest first.
func (db *DB) ListKitchens(ctx context.Context, f model.KitchenFilter) ([]model.Kitchen, error) {
	var (
		where []string
		args  []any
	)
	if f.OnlyActive {
		where = append(where, "is_active = 1")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(title LIKE ? OR description LIKE ? OR address LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	if f.City != "" {
		where = append(where, "city = ?")
		args = append(args, f.City)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.KitchenType != "" {
		where = append(where, "kitchen_type = ?")
		args = append(args, string(f.KitchenType))
	}
	if f.OwnerID > 0 {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.MinPrice != nil {
		where = append(where, "CAST(price_per_hour AS REAL) >= ?")
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		where = append(where, "CAST(price_per_hour AS REAL) <= ?")
		args = append(args, f.MaxPrice.InexactFloat64())
	}
	if f.MinArea != nil {
		where = append(where, "area_sqm >= ?")
		args = append(args, *f.MinArea)
	}
	if f.MaxArea != nil {
		where = append(where, "area_sqm <= ?")
		args = append(args, *f.MaxArea)
	}

	query := `SELECT ` + kitchenColumns + ` FROM kitchens`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list kitchens", err)
	}
	defer rows.Close()

	kitchens := make([]model.Kitchen, 0)
	for rows.Next() {
		k, err := scanKitchen(rows)
		if err != nil {
			return nil, wrapErr("scan kitchen", err)
		}
		kitchens = append(kitchens, *k)
	}
	return kitchens, wrapErr("list kitchens", rows.Err())
}

// ListCities returns distinct cities of active kitchens.
func (db *DB) ListCities(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT city FROM kitchens WHERE is_active = 1 AND city != '' ORDER BY city`)
	if err != nil {
		return nil, wrapErr("list cities", err)
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, wrapErr("scan city", err)
		}
		cities = append(cities, c)
	}
	return cities, wrapErr("list cities", rows.Err())
}
