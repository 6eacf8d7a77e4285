package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

type AuthHandler struct {
	userRepo      repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{userRepo: ur, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type callbackRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signin authenticates by email and password. Unknown accounts, OAuth-only
// accounts and wrong passwords all get the same 401.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil || user == nil || user.PasswordHash == "" {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	h.respondWithToken(w, user)
}

// Callback lands a federated login. A first-time identity is provisioned
// on the spot: the very first account ever becomes the manager, every
// later one a driver.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		http.Error(w, "Error looking up user", http.StatusInternalServerError)
		return
	}

	if user == nil {
		fullName := strings.TrimSpace(req.FullName)
		if fullName == "" {
			if at := strings.Index(req.Email, "@"); at > 0 {
				fullName = req.Email[:at]
			} else {
				fullName = "Unknown User"
			}
		}

		user, err = h.userRepo.CreateFederated(ctx, req.Email, fullName)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost a race against a concurrent first login for the same
			// identity; the account exists now
			user, err = h.userRepo.GetUserByEmail(ctx, req.Email)
		}
		if err != nil || user == nil {
			http.Error(w, "Error creating user", http.StatusInternalServerError)
			return
		}
	}

	h.respondWithToken(w, user)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr}, http.StatusOK)
}
