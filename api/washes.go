package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/internal/validate"
	"github.com/washtrack/washtrack/internal/wash"
	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

type WashesHandler struct {
	userRepo  repository.UserRepo
	truckRepo repository.TruckRepo
	washRepo  repository.WashRepo
	store     storage.ObjectStore
	validator *validate.Validator
}

func NewWashesHandler(
	ur repository.UserRepo,
	tr repository.TruckRepo,
	wr repository.WashRepo,
	store storage.ObjectStore,
	v *validate.Validator,
) *WashesHandler {
	return &WashesHandler{userRepo: ur, truckRepo: tr, washRepo: wr, store: store, validator: v}
}

type washRequest struct {
	LicensePlate string          `json:"licensePlate"`
	DriverID     int64           `json:"driverId"`
	WashType     models.WashType `json:"washType"`
	Price        decimal.Decimal `json:"price"`
	Notes        string          `json:"notes"`
	BeforeImage  string          `json:"beforeImage"`
	AfterImage   string          `json:"afterImage"`
}

// parseWashRequest runs the raw body through the embedded JSON schema and
// then decodes it. It also resolves and checks the driver, the common
// validation of creation and update.
func (h *WashesHandler) parseWashRequest(w http.ResponseWriter, r *http.Request) (*washRequest, *models.User, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return nil, nil, false
	}

	ctx := r.Context()

	if err := h.validator.Check(ctx, validate.WashRequest, body); err != nil {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return nil, nil, false
	}

	var req washRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return nil, nil, false
	}

	if !req.WashType.Valid() {
		http.Error(w, "Invalid wash type", http.StatusBadRequest)
		return nil, nil, false
	}
	if !req.Price.IsPositive() {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return nil, nil, false
	}

	driver, err := h.userRepo.GetUserByID(ctx, req.DriverID)
	if err != nil {
		http.Error(w, "Error looking up driver", http.StatusInternalServerError)
		return nil, nil, false
	}
	if driver == nil || driver.Role != models.RoleDriver {
		http.Error(w, "Invalid driver selected", http.StatusBadRequest)
		return nil, nil, false
	}

	return &req, driver, true
}

func (h *WashesHandler) ListWashes(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.washRepo.ListWashesByWasher(r.Context(), sess.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch wash records", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []models.WashRecord{}
	}

	writeJSON(w, map[string]any{"washRecords": records}, http.StatusOK)
}

func (h *WashesHandler) CreateWash(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	req, driver, ok := h.parseWashRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	truck, err := h.truckRepo.GetTruckByPlate(ctx, req.LicensePlate)
	if err != nil {
		http.Error(w, "Error looking up truck", http.StatusInternalServerError)
		return
	}
	if truck == nil {
		truck = &models.Truck{LicensePlate: req.LicensePlate, DriverID: driver.ID}
		id, err := h.truckRepo.CreateTruck(ctx, truck)
		if err != nil {
			http.Error(w, "Error creating truck", http.StatusInternalServerError)
			return
		}
		truck.ID = id
	}

	rec := &models.WashRecord{
		TruckID:  truck.ID,
		WasherID: sess.UserID,
		WashType: req.WashType,
		Price:    req.Price,
		Notes:    req.Notes,
		WashDate: time.Now().UTC().UnixMilli(),
		Images:   wash.NewImagePair(req.BeforeImage, req.AfterImage),
	}

	id, err := h.washRepo.CreateWash(ctx, rec)
	if err != nil {
		http.Error(w, "Failed to create wash record", http.StatusInternalServerError)
		return
	}

	created, err := h.washRepo.GetWashForWasher(ctx, id, sess.UserID)
	if err != nil || created == nil {
		http.Error(w, "Failed to create wash record", http.StatusInternalServerError)
		return
	}
	created.Washer = sanitizedWasher(created.Washer, sess)

	writeJSON(w, map[string]any{"washRecord": created}, http.StatusCreated)
}

// UpdateWash is the reconciliation flow: ownership gate, truck repointing,
// per-slot image diff, one transaction for the row changes, then
// best-effort storage deletes of the superseded objects.
func (h *WashesHandler) UpdateWash(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid wash ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// a record that is missing and a record owned by someone else get the
	// same answer; existence must not leak
	existing, err := h.washRepo.GetWashForWasher(ctx, id, sess.UserID)
	if err != nil {
		http.Error(w, "Error looking up wash record", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Wash record not found", http.StatusNotFound)
		return
	}

	req, driver, ok := h.parseWashRequest(w, r)
	if !ok {
		return
	}

	truck := existing.Truck
	if truck == nil {
		http.Error(w, "Error looking up truck", http.StatusInternalServerError)
		return
	}

	if truck.LicensePlate != req.LicensePlate {
		// reuse the truck that already carries the plate, otherwise
		// register a new one under the submitted driver
		other, err := h.truckRepo.GetTruckByPlate(ctx, req.LicensePlate)
		if err != nil {
			http.Error(w, "Error looking up truck", http.StatusInternalServerError)
			return
		}
		if other != nil {
			truck = other
		} else {
			truck = &models.Truck{LicensePlate: req.LicensePlate, DriverID: driver.ID}
			newID, err := h.truckRepo.CreateTruck(ctx, truck)
			if err != nil {
				http.Error(w, "Error creating truck", http.StatusInternalServerError)
				return
			}
			truck.ID = newID
		}
	} else if truck.DriverID != driver.ID {
		if err := h.truckRepo.UpdateTruckDriver(ctx, truck.ID, driver.ID); err != nil {
			http.Error(w, "Error updating truck", http.StatusInternalServerError)
			return
		}
		truck.DriverID = driver.ID
	}

	plan := wash.PlanImages(existing.Images, req.BeforeImage, req.AfterImage)

	rec := &models.WashRecord{
		ID:       existing.ID,
		TruckID:  truck.ID,
		WasherID: sess.UserID,
		WashType: req.WashType,
		Price:    req.Price,
		Notes:    req.Notes,
	}

	if err := h.washRepo.UpdateWash(ctx, rec, plan.DeleteKeys, plan.Create); err != nil {
		http.Error(w, "Failed to update wash record", http.StatusInternalServerError)
		return
	}

	// superseded objects go after the commit; a storage failure here must
	// never fail the already-committed update
	for _, key := range plan.DeleteKeys {
		if err := h.store.Remove(ctx, key); err != nil {
			logger.Error("delete superseded image", slog.String("key", key), slog.Any("err", err))
		}
	}

	updated, err := h.washRepo.GetWashForWasher(ctx, id, sess.UserID)
	if err != nil || updated == nil {
		http.Error(w, "Failed to update wash record", http.StatusInternalServerError)
		return
	}
	updated.Washer = sanitizedWasher(updated.Washer, sess)

	writeJSON(w, map[string]any{"washRecord": updated}, http.StatusOK)
}

func (h *WashesHandler) DeleteWash(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid wash ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	existing, err := h.washRepo.GetWashForWasher(ctx, id, sess.UserID)
	if err != nil {
		http.Error(w, "Error looking up wash record", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Wash record not found", http.StatusNotFound)
		return
	}

	// image rows cascade with the record
	if err := h.washRepo.DeleteWash(ctx, id); err != nil {
		http.Error(w, "Failed to delete wash record", http.StatusInternalServerError)
		return
	}

	for _, img := range existing.Images {
		if err := h.store.Remove(ctx, img.ImageKey); err != nil {
			logger.Error("delete wash image", slog.String("key", img.ImageKey), slog.Any("err", err))
		}
	}

	writeJSON(w, map[string]any{"message": "Wash record deleted successfully"}, http.StatusOK)
}

// Stats serves the manager dashboard aggregate.
func (h *WashesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.washRepo.Stats(r.Context())
	if err != nil {
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}

// sanitizedWasher fills the washer expansion from the session without
// another lookup; the record can only belong to the caller.
func sanitizedWasher(existing *models.User, sess Session) *models.User {
	if existing != nil {
		return existing
	}
	return &models.User{ID: sess.UserID, Email: sess.Email, Role: sess.Role}
}
