package repository

import (
	"context"
	"errors"

	"github.com/washtrack/washtrack/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

// ErrDuplicateEmail is returned by CreateUser when the email is already
// taken by a non-deleted account.
var ErrDuplicateEmail = errors.New("email already in use")

type UserRepo interface {
	// CreateUser inserts a credential-based account and returns its id.
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	// CreateFederated provisions an account for a first federated login.
	// The role is assigned by the bootstrap rule (first account ever
	// becomes manager, every later one a driver); the count and the
	// insert run in one transaction so concurrent first logins cannot
	// both become manager.
	CreateFederated(ctx context.Context, email, fullName string) (*models.User, error)
	// GetUserByID returns nil for missing or soft-deleted accounts.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListDrivers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// SoftDeleteUser sets deleted_at; the row is kept for wash-record
	// references.
	SoftDeleteUser(ctx context.Context, id int64) error
}

type TruckRepo interface {
	// GetTruckByPlate returns nil when no truck carries the plate.
	GetTruckByPlate(ctx context.Context, plate string) (*models.Truck, error)
	CreateTruck(ctx context.Context, t *models.Truck) (int64, error)
	UpdateTruckDriver(ctx context.Context, truckID, driverID int64) error
}

type WashRepo interface {
	// CreateWash persists the record plus its image rows (rec.Images)
	// atomically and returns the new id.
	CreateWash(ctx context.Context, rec *models.WashRecord) (int64, error)
	// GetWashForWasher returns the record only when it exists AND belongs
	// to washerID; nil otherwise. Callers must not distinguish the two
	// cases. Truck (with driver) and images are expanded.
	GetWashForWasher(ctx context.Context, id, washerID int64) (*models.WashRecord, error)
	ListWashesByWasher(ctx context.Context, washerID int64) ([]models.WashRecord, error)
	// UpdateWash applies the reconciliation plan in one transaction:
	// delete the image rows whose keys are in deleteKeys, update the
	// record scalars, insert createImages.
	UpdateWash(ctx context.Context, rec *models.WashRecord, deleteKeys []string, createImages []models.WashImage) error
	// DeleteWash removes the record; image rows cascade at the schema level.
	DeleteWash(ctx context.Context, id int64) error
	// ListImageKeys returns every storage key referenced by any image row.
	ListImageKeys(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.WashStats, error)
}

// JobQueue is the enqueue-side contract of the background job queue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload any) (int64, error)
}
