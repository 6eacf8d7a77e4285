package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/washtrack/washtrack/api"
	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository/mock"
)

func parseToken(t *testing.T, secret string, body []byte) jwt.MapClaims {
	t.Helper()
	var ar struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &ar); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if ar.Token == "" {
		t.Fatalf("empty token")
	}
	tok, err := jwt.Parse(ar.Token, func(token *jwt.Token) (any, error) { return []byte(secret), nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type")
	}
	return claims
}

func TestSignin(t *testing.T) {
	secret := "testsecret"
	tokenDur := 1 * time.Hour

	tests := []struct {
		name       string
		body       any
		prepare    func(m *mock.Mocks)
		wantStatus int
		checkBody  func(t *testing.T, body []byte)
	}{
		{
			name:       "InvalidRequest",
			body:       "not a json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingFields_Email",
			body:       map[string]string{"password": "nop"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingFields_Password",
			body:       map[string]string{"email": "missing@example.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingUser",
			body:       map[string]string{"email": "missing@example.com", "password": "nop"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "FederatedOnlyAccount",
			body: map[string]string{"email": "oauth@example.com", "password": "whatever"},
			prepare: func(m *mock.Mocks) {
				// no password hash: account was provisioned by a federated login
				m.Users.Seed(models.User{Email: "oauth@example.com", FullName: "OAuth Only", Role: models.RoleDriver})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "WrongPassword",
			body: map[string]string{"email": "c@example.com", "password": "wrongpw"},
			prepare: func(m *mock.Mocks) {
				hash, _ := bcrypt.GenerateFromPassword([]byte("rightpw"), bcrypt.DefaultCost)
				m.Users.Seed(models.User{Email: "c@example.com", FullName: "C", Role: models.RoleWasher, PasswordHash: string(hash)})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "SoftDeletedAccount",
			body: map[string]string{"email": "gone@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
				deleted := time.Now().UnixMilli()
				m.Users.Seed(models.User{Email: "gone@example.com", Role: models.RoleWasher, PasswordHash: string(hash), DeletedAt: &deleted})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Success",
			body: map[string]string{"email": "bob@example.com", "password": "hunter2"},
			prepare: func(m *mock.Mocks) {
				hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
				m.Users.Seed(models.User{ID: 2, Email: "bob@example.com", FullName: "Bob", Role: models.RoleWasher, PasswordHash: string(hash)})
			},
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte) {
				claims := parseToken(t, secret, b)
				if claims["email"] != "bob@example.com" {
					t.Fatalf("wrong email claim: %v", claims["email"])
				}
				if claims["role"] != "washer" {
					t.Fatalf("wrong role claim: %v", claims["role"])
				}
				if expF, ok := claims["exp"].(float64); !ok || int64(expF) < time.Now().Unix() {
					t.Fatalf("invalid exp claim")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			if tt.prepare != nil {
				tt.prepare(mocks)
			}
			handler := api.NewAuthHandler(mocks.Users, secret, tokenDur)

			var bodyReader io.Reader
			if tt.body != nil {
				b, _ := json.Marshal(tt.body)
				bodyReader = bytes.NewReader(b)
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", bodyReader)
			w := httptest.NewRecorder()
			handler.Signin(w, req)

			res := w.Result()
			defer res.Body.Close()
			data, _ := io.ReadAll(res.Body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d got %d body=%s", tt.wantStatus, res.StatusCode, string(data))
			}
			if tt.checkBody != nil {
				tt.checkBody(t, data)
			}
		})
	}
}

func TestCallback_Bootstrap(t *testing.T) {
	secret := "testsecret"
	mocks := mock.NewMocks()
	handler := api.NewAuthHandler(mocks.Users, secret, time.Hour)

	post := func(body map[string]string) (*http.Response, []byte) {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/callback", bytes.NewReader(b))
		w := httptest.NewRecorder()
		handler.Callback(w, req)
		res := w.Result()
		data, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return res, data
	}

	// the very first identity ever seen becomes the manager
	res, data := post(map[string]string{"email": "first@example.com", "fullName": "First User"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("first callback: expected 200 got %d body=%s", res.StatusCode, string(data))
	}
	claims := parseToken(t, secret, data)
	if claims["role"] != "manager" {
		t.Fatalf("first account should be manager, got %v", claims["role"])
	}

	// every later identity is provisioned as a driver
	res, data = post(map[string]string{"email": "second@example.com", "fullName": "Second User"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second callback: expected 200 got %d body=%s", res.StatusCode, string(data))
	}
	claims = parseToken(t, secret, data)
	if claims["role"] != "driver" {
		t.Fatalf("second account should be driver, got %v", claims["role"])
	}

	// a returning identity keeps its stored role, it is not re-provisioned
	res, data = post(map[string]string{"email": "first@example.com", "fullName": "First User"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("returning callback: expected 200 got %d", res.StatusCode)
	}
	claims = parseToken(t, secret, data)
	if claims["role"] != "manager" {
		t.Fatalf("returning account should keep manager role, got %v", claims["role"])
	}
	if got := len(mocks.Users.Users); got != 2 {
		t.Fatalf("expected 2 accounts, got %d", got)
	}
}

func TestCallback_FullNameFallback(t *testing.T) {
	mocks := mock.NewMocks()
	handler := api.NewAuthHandler(mocks.Users, "s", time.Hour)

	b, _ := json.Marshal(map[string]string{"email": "jane.doe@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/callback", bytes.NewReader(b))
	w := httptest.NewRecorder()
	handler.Callback(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Result().StatusCode)
	}
	u, _ := mocks.Users.GetUserByEmail(req.Context(), "jane.doe@example.com")
	if u == nil {
		t.Fatalf("account not provisioned")
	}
	if u.FullName != "jane.doe" {
		t.Fatalf("expected full name from email local part, got %q", u.FullName)
	}
}

func TestCallback_MissingEmail(t *testing.T) {
	mocks := mock.NewMocks()
	handler := api.NewAuthHandler(mocks.Users, "s", time.Hour)

	b, _ := json.Marshal(map[string]string{"fullName": "No Email"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/callback", bytes.NewReader(b))
	w := httptest.NewRecorder()
	handler.Callback(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Result().StatusCode)
	}
}

func TestSignout(t *testing.T) {
	mocks := mock.NewMocks()
	handler := api.NewAuthHandler(mocks.Users, "s", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signout", nil)
	w := httptest.NewRecorder()
	handler.Signout(w, req)

	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !bytes.Contains(b, []byte("signed out")) {
		t.Fatalf("unexpected body: %s", string(b))
	}
}
