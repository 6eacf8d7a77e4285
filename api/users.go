package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/washtrack/washtrack/internal/jobs"
	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

type UsersHandler struct {
	userRepo repository.UserRepo
	queue    repository.JobQueue
}

func NewUsersHandler(ur repository.UserRepo, q repository.JobQueue) *UsersHandler {
	return &UsersHandler{userRepo: ur, queue: q}
}

type createUserRequest struct {
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

type updateUserRequest struct {
	Email    *string      `json:"email"`
	FullName *string      `json:"fullName"`
	Role     *models.Role `json:"role"`
	Password *string      `json:"password"`
}

// ListUsers returns every non-deleted account. Soft-deleted rows stay out
// of listings but keep wash-record references intact.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	if users == nil {
		users = []models.User{}
	}

	writeJSON(w, users, http.StatusOK)
}

// ListDrivers serves the driver options for the wash form.
func (h *UsersHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.userRepo.ListDrivers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list drivers", http.StatusInternalServerError)
		return
	}

	if drivers == nil {
		drivers = []models.User{}
	}

	writeJSON(w, drivers, http.StatusOK)
}

func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.FullName == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}
	if !req.Role.Valid() {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	user := models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: string(hash),
	}

	id, err := h.userRepo.CreateUser(ctx, &user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		http.Error(w, "Email already in use", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}
	user.ID = id

	// welcome mail is best-effort: the account exists whether or not the
	// notification can be delivered
	payload := jobs.UserWelcomePayload{Email: user.Email, FullName: user.FullName, Role: user.Role}
	if _, err := h.queue.Enqueue(ctx, jobs.TypeUserWelcome, payload); err != nil {
		logger.Error("enqueue welcome mail", slog.String("email", user.Email), slog.Any("err", err))
	}

	writeJSON(w, map[string]any{"user": user}, http.StatusCreated)
}

func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByID(ctx, id)
	if err != nil {
		http.Error(w, "Error looking up user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			http.Error(w, "Invalid role", http.StatusBadRequest)
			return
		}
		user.Role = *req.Role
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Error hashing password", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := h.userRepo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			http.Error(w, "Email already in use", http.StatusConflict)
			return
		}
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, user, http.StatusOK)
}

// DeleteUser soft-deletes: the row keeps its id for wash-record references
// but disappears from lookups and listings.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByID(ctx, id)
	if err != nil {
		http.Error(w, "Error looking up user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.userRepo.SoftDeleteUser(ctx, id); err != nil {
		http.Error(w, "Error deleting user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"message": "User deleted"}, http.StatusOK)
}
