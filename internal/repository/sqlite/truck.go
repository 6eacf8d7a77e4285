package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/washtrack/washtrack/pkg/models"
)

func (r *SQLiteRepo) GetTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, license_plate, driver_id FROM trucks WHERE license_plate = ?`, plate)
	var t models.Truck
	if err := row.Scan(&t.ID, &t.LicensePlate, &t.DriverID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &t, nil
}

func (r *SQLiteRepo) CreateTruck(ctx context.Context, t *models.Truck) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("truck is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO trucks (license_plate, driver_id) VALUES (?, ?)`, t.LicensePlate, t.DriverID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) UpdateTruckDriver(ctx context.Context, truckID, driverID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE trucks SET driver_id = ? WHERE id = ?`, driverID, truckID)
	return err
}
