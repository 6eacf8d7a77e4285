package models

import (
	"github.com/shopspring/decimal"
)

// Role is the closed set of account roles. The authorization middleware
// compares these values exhaustively; no untyped role strings cross the
// JWT boundary.
type Role string

const (
	RoleManager Role = "manager"
	RoleWasher  Role = "washer"
	RoleDriver  Role = "driver"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleWasher, RoleDriver:
		return true
	}
	return false
}

// WashType enumerates the service tiers a washer can log.
type WashType string

const (
	WashBasic   WashType = "basic"
	WashPremium WashType = "premium"
	WashDeluxe  WashType = "deluxe"
)

func (t WashType) Valid() bool {
	switch t {
	case WashBasic, WashPremium, WashDeluxe:
		return true
	}
	return false
}

// ImageType names the two fixed attachment slots of a wash record.
type ImageType string

const (
	ImageBefore ImageType = "before"
	ImageAfter  ImageType = "after"
)

func (t ImageType) Valid() bool {
	return t == ImageBefore || t == ImageAfter
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	FullName     string `json:"fullName" db:"full_name"`
	Role         Role   `json:"role" db:"role"`
	PasswordHash string `json:"-" db:"password_hash"`
	DeletedAt    *int64 `json:"deletedAt,omitempty" db:"deleted_at"`
	Created      int64  `json:"createdAt" db:"created"`
	Updated      int64  `json:"updatedAt" db:"updated"`
}

type Truck struct {
	ID           int64  `json:"id" db:"id"`
	LicensePlate string `json:"licensePlate" db:"license_plate"`
	DriverID     int64  `json:"driverId" db:"driver_id"`
	Driver       *User  `json:"driver,omitempty"`
}

type WashRecord struct {
	ID       int64           `json:"id" db:"id"`
	TruckID  int64           `json:"truckId" db:"truck_id"`
	WasherID int64           `json:"washerId" db:"washer_id"`
	WashType WashType        `json:"washType" db:"wash_type"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Notes    string          `json:"notes,omitempty" db:"notes"`
	WashDate int64           `json:"washDate" db:"wash_date"`
	Created  int64           `json:"createdAt" db:"created"`
	Updated  int64           `json:"updatedAt" db:"updated"`

	Truck  *Truck      `json:"truck,omitempty"`
	Washer *User       `json:"washer,omitempty"`
	Images []WashImage `json:"images,omitempty"`
}

type WashImage struct {
	ID           int64     `json:"id" db:"id"`
	WashRecordID int64     `json:"washRecordId" db:"wash_record_id"`
	ImageType    ImageType `json:"imageType" db:"image_type"`
	ImageKey     string    `json:"imageKey" db:"image_key"`
}

// WashTypeStats is one row of the manager dashboard aggregate.
type WashTypeStats struct {
	WashType WashType        `json:"washType"`
	Count    int64           `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// WashStats summarizes all wash records for the manager dashboard.
type WashStats struct {
	TotalWashes  int64           `json:"totalWashes"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	ByType       []WashTypeStats `json:"byType"`
}
