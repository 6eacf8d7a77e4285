package mock

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

// Test helpers and mocks. The repos are small stateful in-memory
// implementations so handler tests can run whole flows (create, update,
// re-fetch) against them; error fields force the failure paths.
type Mocks struct {
	Users  *UserRepo
	Trucks *TruckRepo
	Washes *WashRepo
	Queue  *JobQueue
	Store  *ObjectStore
}

func NewMocks() *Mocks {
	users := &UserRepo{Users: map[int64]*models.User{}}
	trucks := &TruckRepo{Trucks: map[int64]*models.Truck{}}
	return &Mocks{
		Users:  users,
		Trucks: trucks,
		Washes: &WashRepo{Records: map[int64]*models.WashRecord{}, trucks: trucks, users: users},
		Queue:  &JobQueue{},
		Store:  &ObjectStore{},
	}
}

type UserRepo struct {
	Users     map[int64]*models.User
	NextID    int64
	CreateErr error
	LookupErr error
}

var _ repository.UserRepo = (*UserRepo)(nil)

// Seed inserts a user directly, assigning an id when none is set.
func (m *UserRepo) Seed(u models.User) *models.User {
	if u.ID == 0 {
		m.NextID++
		u.ID = m.NextID
	} else if u.ID > m.NextID {
		m.NextID = u.ID
	}
	m.Users[u.ID] = &u
	return &u
}

func (m *UserRepo) liveCount() int {
	n := 0
	for _, u := range m.Users {
		if u.DeletedAt == nil {
			n++
		}
	}
	return n
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, existing := range m.Users {
		if existing.DeletedAt == nil && existing.Email == u.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	m.NextID++
	cp := *u
	cp.ID = m.NextID
	m.Users[cp.ID] = &cp
	return cp.ID, nil
}

func (m *UserRepo) CreateFederated(ctx context.Context, email, fullName string) (*models.User, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	role := models.RoleDriver
	if m.liveCount() == 0 {
		role = models.RoleManager
	}
	id, err := m.CreateUser(ctx, &models.User{Email: email, FullName: fullName, Role: role})
	if err != nil {
		return nil, err
	}
	return m.Users[id], nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	u, ok := m.Users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return u, nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	for _, u := range m.Users {
		if u.DeletedAt == nil && u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	var out []models.User
	for _, u := range m.Users {
		if u.DeletedAt == nil {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *UserRepo) ListDrivers(ctx context.Context) ([]models.User, error) {
	all, err := m.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range all {
		if u.Role == models.RoleDriver {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *UserRepo) UpdateUser(ctx context.Context, u *models.User) error {
	for _, existing := range m.Users {
		if existing.ID != u.ID && existing.DeletedAt == nil && existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *u
	m.Users[u.ID] = &cp
	return nil
}

func (m *UserRepo) SoftDeleteUser(ctx context.Context, id int64) error {
	if u, ok := m.Users[id]; ok {
		now := time.Now().UTC().UnixMilli()
		u.DeletedAt = &now
	}
	return nil
}

type TruckRepo struct {
	Trucks    map[int64]*models.Truck
	NextID    int64
	CreateErr error
	LookupErr error
}

var _ repository.TruckRepo = (*TruckRepo)(nil)

func (m *TruckRepo) Seed(t models.Truck) *models.Truck {
	if t.ID == 0 {
		m.NextID++
		t.ID = m.NextID
	} else if t.ID > m.NextID {
		m.NextID = t.ID
	}
	m.Trucks[t.ID] = &t
	return &t
}

func (m *TruckRepo) GetTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	for _, t := range m.Trucks {
		if strings.EqualFold(t.LicensePlate, plate) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *TruckRepo) CreateTruck(ctx context.Context, t *models.Truck) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.NextID++
	cp := *t
	cp.ID = m.NextID
	m.Trucks[cp.ID] = &cp
	return cp.ID, nil
}

func (m *TruckRepo) UpdateTruckDriver(ctx context.Context, truckID, driverID int64) error {
	if t, ok := m.Trucks[truckID]; ok {
		t.DriverID = driverID
	}
	return nil
}

type WashRepo struct {
	Records   map[int64]*models.WashRecord
	NextID    int64
	CreateErr error
	UpdateErr error
	LookupErr error
	StatsOut  *models.WashStats

	trucks *TruckRepo
	users  *UserRepo
}

var _ repository.WashRepo = (*WashRepo)(nil)

func (m *WashRepo) CreateWash(ctx context.Context, rec *models.WashRecord) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.NextID++
	cp := *rec
	cp.ID = m.NextID
	cp.Images = append([]models.WashImage(nil), rec.Images...)
	for i := range cp.Images {
		cp.Images[i].WashRecordID = cp.ID
	}
	m.Records[cp.ID] = &cp
	return cp.ID, nil
}

func (m *WashRepo) expand(rec *models.WashRecord) *models.WashRecord {
	cp := *rec
	cp.Images = append([]models.WashImage(nil), rec.Images...)
	if m.trucks != nil {
		if t, ok := m.trucks.Trucks[rec.TruckID]; ok {
			tc := *t
			if m.users != nil {
				if d, ok := m.users.Users[t.DriverID]; ok {
					dc := *d
					tc.Driver = &dc
				}
			}
			cp.Truck = &tc
		}
	}
	return &cp
}

func (m *WashRepo) GetWashForWasher(ctx context.Context, id, washerID int64) (*models.WashRecord, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	rec, ok := m.Records[id]
	if !ok || rec.WasherID != washerID {
		return nil, nil
	}
	return m.expand(rec), nil
}

func (m *WashRepo) ListWashesByWasher(ctx context.Context, washerID int64) ([]models.WashRecord, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	var out []models.WashRecord
	for _, rec := range m.Records {
		if rec.WasherID == washerID {
			out = append(out, *m.expand(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WashDate > out[j].WashDate })
	return out, nil
}

func (m *WashRepo) UpdateWash(ctx context.Context, rec *models.WashRecord, deleteKeys []string, createImages []models.WashImage) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	stored, ok := m.Records[rec.ID]
	if !ok {
		return nil
	}
	drop := map[string]bool{}
	for _, k := range deleteKeys {
		drop[k] = true
	}
	var kept []models.WashImage
	for _, img := range stored.Images {
		if !drop[img.ImageKey] {
			kept = append(kept, img)
		}
	}
	for _, img := range createImages {
		img.WashRecordID = rec.ID
		kept = append(kept, img)
	}
	stored.TruckID = rec.TruckID
	stored.WashType = rec.WashType
	stored.Price = rec.Price
	stored.Notes = rec.Notes
	stored.Images = kept
	return nil
}

func (m *WashRepo) DeleteWash(ctx context.Context, id int64) error {
	delete(m.Records, id)
	return nil
}

func (m *WashRepo) ListImageKeys(ctx context.Context) ([]string, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	var keys []string
	for _, rec := range m.Records {
		for _, img := range rec.Images {
			keys = append(keys, img.ImageKey)
		}
	}
	return keys, nil
}

func (m *WashRepo) Stats(ctx context.Context) (*models.WashStats, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.StatsOut != nil {
		return m.StatsOut, nil
	}
	return &models.WashStats{}, nil
}

// EnqueuedJob records one JobQueue.Enqueue call.
type EnqueuedJob struct {
	Type    string
	Payload any
}

type JobQueue struct {
	Enqueued []EnqueuedJob
	Err      error
}

var _ repository.JobQueue = (*JobQueue)(nil)

func (m *JobQueue) Enqueue(ctx context.Context, jobType string, payload any) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.Enqueued = append(m.Enqueued, EnqueuedJob{Type: jobType, Payload: payload})
	return int64(len(m.Enqueued)), nil
}

// ObjectStore is an in-memory stand-in for the S3 client. Objects drives
// List; Removed and BulkRemoved record the delete calls.
type ObjectStore struct {
	Objects     []storage.ObjectInfo
	Removed     []string
	BulkRemoved []string

	PutErr       error
	GetErr       error
	RemoveErr    error
	ListErr      error
	RemoveAllErr error
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

func (m *ObjectStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	return "https://storage.test/put/" + key, nil
}

func (m *ObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	return "https://storage.test/get/" + key, nil
}

func (m *ObjectStore) Remove(ctx context.Context, key string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, key)
	return nil
}

func (m *ObjectStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []storage.ObjectInfo
	for _, obj := range m.Objects {
		if strings.HasPrefix(obj.Key, prefix) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (m *ObjectStore) RemoveAll(ctx context.Context, keys []string) error {
	if m.RemoveAllErr != nil {
		return m.RemoveAllErr
	}
	m.BulkRemoved = append(m.BulkRemoved, keys...)
	return nil
}
