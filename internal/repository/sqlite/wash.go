package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/washtrack/washtrack/pkg/models"
)

func (r *SQLiteRepo) CreateWash(ctx context.Context, rec *models.WashRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("wash record is nil")
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	res, err := tx.ExecContext(ctx, `INSERT INTO wash_records (truck_id, washer_id, wash_type, price, notes, wash_date, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TruckID, rec.WasherID, string(rec.WashType), rec.Price.String(), rec.Notes, rec.WashDate, ts, ts)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, img := range rec.Images {
		if _, err := tx.ExecContext(ctx, `INSERT INTO wash_images (wash_record_id, image_type, image_key) VALUES (?, ?, ?)`,
			id, string(img.ImageType), img.ImageKey); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *SQLiteRepo) GetWashForWasher(ctx context.Context, id, washerID int64) (*models.WashRecord, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, truck_id, washer_id, wash_type, price, notes, wash_date, created, updated FROM wash_records WHERE id = ? AND washer_id = ?`, id, washerID)
	rec, err := scanWash(row)
	if err != nil || rec == nil {
		return rec, err
	}

	if err := r.expandWash(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (r *SQLiteRepo) ListWashesByWasher(ctx context.Context, washerID int64) ([]models.WashRecord, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, truck_id, washer_id, wash_type, price, notes, wash_date, created, updated FROM wash_records WHERE washer_id = ? ORDER BY wash_date DESC`, washerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WashRecord
	for rows.Next() {
		rec, err := scanWashRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.expandWash(ctx, &out[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (r *SQLiteRepo) UpdateWash(ctx context.Context, rec *models.WashRecord, deleteKeys []string, createImages []models.WashImage) error {
	if rec == nil {
		return fmt.Errorf("wash record is nil")
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if len(deleteKeys) > 0 {
		args := make([]any, 0, len(deleteKeys)+1)
		args = append(args, rec.ID)
		for _, k := range deleteKeys {
			args = append(args, k)
		}
		q := `DELETE FROM wash_images WHERE wash_record_id = ? AND image_key IN (?` + strings.Repeat(",?", len(deleteKeys)-1) + `)`
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE wash_records SET truck_id = ?, wash_type = ?, price = ?, notes = ?, updated = ? WHERE id = ?`,
		rec.TruckID, string(rec.WashType), rec.Price.String(), rec.Notes, now(), rec.ID); err != nil {
		return err
	}

	for _, img := range createImages {
		if _, err := tx.ExecContext(ctx, `INSERT INTO wash_images (wash_record_id, image_type, image_key) VALUES (?, ?, ?)`,
			rec.ID, string(img.ImageType), img.ImageKey); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepo) DeleteWash(ctx context.Context, id int64) error {
	// image rows cascade via the foreign key
	_, err := r.conn.Exec(ctx, `DELETE FROM wash_records WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListImageKeys(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT image_key FROM wash_images`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) Stats(ctx context.Context) (*models.WashStats, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT wash_type, price FROM wash_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.WashType]int64{}
	revenues := map[models.WashType]decimal.Decimal{}
	stats := &models.WashStats{TotalRevenue: decimal.Zero}
	for rows.Next() {
		var typ string
		var priceStr string
		if err := rows.Scan(&typ, &priceStr); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored price %q: %w", priceStr, err)
		}

		wt := models.WashType(typ)
		counts[wt]++
		revenues[wt] = revenues[wt].Add(price)
		stats.TotalWashes++
		stats.TotalRevenue = stats.TotalRevenue.Add(price)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, wt := range []models.WashType{models.WashBasic, models.WashPremium, models.WashDeluxe} {
		rev, ok := revenues[wt]
		if !ok {
			rev = decimal.Zero
		}
		stats.ByType = append(stats.ByType, models.WashTypeStats{WashType: wt, Count: counts[wt], Revenue: rev})
	}

	return stats, nil
}

// expandWash loads the truck (with its driver) and the image rows.
func (r *SQLiteRepo) expandWash(ctx context.Context, rec *models.WashRecord) error {
	row := r.conn.QueryRow(ctx, `SELECT t.id, t.license_plate, t.driver_id, u.id, u.email, u.full_name, u.role, u.created, u.updated
		FROM trucks t JOIN users u ON u.id = t.driver_id WHERE t.id = ?`, rec.TruckID)
	var t models.Truck
	var d models.User
	if err := row.Scan(&t.ID, &t.LicensePlate, &t.DriverID, &d.ID, &d.Email, &d.FullName, &d.Role, &d.Created, &d.Updated); err != nil {
		if err != sql.ErrNoRows {
			return err
		}
	} else {
		t.Driver = &d
		rec.Truck = &t
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, wash_record_id, image_type, image_key FROM wash_images WHERE wash_record_id = ? ORDER BY image_type`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.Images = rec.Images[:0]
	for rows.Next() {
		var img models.WashImage
		if err := rows.Scan(&img.ID, &img.WashRecordID, &img.ImageType, &img.ImageKey); err != nil {
			return err
		}
		rec.Images = append(rec.Images, img)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWashFrom(s rowScanner) (*models.WashRecord, error) {
	var rec models.WashRecord
	var priceStr string
	if err := s.Scan(&rec.ID, &rec.TruckID, &rec.WasherID, &rec.WashType, &priceStr, &rec.Notes, &rec.WashDate, &rec.Created, &rec.Updated); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", priceStr, err)
	}
	rec.Price = price

	return &rec, nil
}

func scanWash(row *sql.Row) (*models.WashRecord, error) {
	rec, err := scanWashFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return rec, err
}

func scanWashRows(rows *sql.Rows) (*models.WashRecord, error) {
	return scanWashFrom(rows)
}
