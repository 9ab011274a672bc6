package db

import (
	"context"
	"fmt"

	"kitchenhub/internal/config"
)

// SyncResult lists the kitchens a catalog sync touched.
type SyncResult struct {
	// Applied are seeded kitchens inserted or updated from the file.
	Applied []int64
	// Deactivated are seeded kitchens that disappeared from the file.
	Deactivated []int64
	// Skipped are file ids already taken by kitchens created through the API.
	Skipped []int64
}

// Changed returns every kitchen id whose row may differ after the sync.
func (r SyncResult) Changed() []int64 {
	out := make([]int64, 0, len(r.Applied)+len(r.Deactivated))
	out = append(out, r.Applied...)
	return append(out, r.Deactivated...)
}

// SyncKitchensFromConfig applies kitchens.yaml to the database in one
// transaction. Seeded kitchens are upserted and the ones missing from the file
// are deactivated. A file id that belongs to a kitchen created through the API
// is skipped: such rows keep their owner and content.
func (db *DB) SyncKitchensFromConfig(ctx context.Context, cfg *config.KitchensConfig) (SyncResult, error) {
	var res SyncResult
	if cfg == nil {
		return res, fmt.Errorf("kitchens config is nil")
	}

	now := db.now().UTC()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, wrapErr("begin sync", err)
	}
	defer func() { _ = tx.Rollback() }()

	seen := make(map[int64]struct{}, len(cfg.Kitchens))
	for _, k := range cfg.Kitchens {
		seen[k.ID] = struct{}{}
		price, err := k.Price()
		if err != nil {
			return res, fmt.Errorf("sync kitchen %d: %w", k.ID, err)
		}

		r, err := tx.ExecContext(ctx, `
			INSERT INTO kitchens (id, owner_id, title, description, address, city, category, kitchen_type,
				area_sqm, price_per_hour, open_hour, close_hour, amenities, is_active, seeded, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				title = excluded.title,
				description = excluded.description,
				address = excluded.address,
				city = excluded.city,
				category = excluded.category,
				kitchen_type = excluded.kitchen_type,
				area_sqm = excluded.area_sqm,
				price_per_hour = excluded.price_per_hour,
				open_hour = excluded.open_hour,
				close_hour = excluded.close_hour,
				amenities = excluded.amenities,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at
			WHERE kitchens.seeded = 1`,
			k.ID, k.OwnerID, k.Title, k.Description, k.Address, k.City, k.Category, k.KitchenType,
			k.AreaSqm, price.String(), k.OpenHour, k.CloseHour, encodeList(k.Amenities), k.IsActive,
			now, now,
		)
		if err != nil {
			return res, wrapErr(fmt.Sprintf("sync kitchen %d", k.ID), err)
		}
		if n, err := r.RowsAffected(); err == nil && n == 0 {
			db.logger.Warn().Int64("kitchen_id", k.ID).Msg("catalog id belongs to a kitchen created through the API, skipped")
			res.Skipped = append(res.Skipped, k.ID)
			continue
		}
		res.Applied = append(res.Applied, k.ID)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM kitchens WHERE seeded = 1 AND is_active = 1`)
	if err != nil {
		return res, wrapErr("list seeded kitchens", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return res, err
		}
		if _, ok := seen[id]; !ok {
			res.Deactivated = append(res.Deactivated, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, err
	}

	for _, id := range res.Deactivated {
		if _, err := tx.ExecContext(ctx,
			`UPDATE kitchens SET is_active = 0, updated_at = ? WHERE id = ? AND seeded = 1`, now, id); err != nil {
			return res, wrapErr(fmt.Sprintf("deactivate kitchen %d", id), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, wrapErr("commit sync", err)
	}

	db.logger.Info().
		Int("applied", len(res.Applied)).
		Int("deactivated", len(res.Deactivated)).
		Int("skipped", len(res.Skipped)).
		Msg("kitchens config applied")
	return res, nil
}
