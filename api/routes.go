package api

import (
	"github.com/gorilla/mux"

	"github.com/washtrack/washtrack/internal/cleanup"
	"github.com/washtrack/washtrack/internal/config"
	"github.com/washtrack/washtrack/internal/db"
	"github.com/washtrack/washtrack/internal/repository/sqlite"
	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/internal/validate"
	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

func SetupRoutes(
	cfg *config.Config,
	version, buildTime string,
	database *db.DB,
	store storage.ObjectStore,
	sweeper *cleanup.Sweeper,
	queue repository.JobQueue,
) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(database)

	validator, err := validate.New()
	if err != nil {
		return nil, err
	}

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	usersHandler := NewUsersHandler(repo, queue)
	washesHandler := NewWashesHandler(repo, repo, repo, store, validator)
	uploadsHandler := NewUploadsHandler(store, validator, cfg.Storage, cfg.Upload)
	cleanupHandler := NewCleanupHandler(sweeper)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")
	r.HandleFunc("/v1/auth/callback", authHandler.Callback).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")

	// Washer endpoints
	washes := apiV1.PathPrefix("/washes").Subrouter()
	washes.Use(RequireRole(models.RoleWasher))
	washes.HandleFunc("", washesHandler.ListWashes).Methods("GET")
	washes.HandleFunc("", washesHandler.CreateWash).Methods("POST")
	washes.HandleFunc("/{id}", washesHandler.UpdateWash).Methods("PUT")
	washes.HandleFunc("/{id}", washesHandler.DeleteWash).Methods("DELETE")

	drivers := apiV1.PathPrefix("/drivers").Subrouter()
	drivers.Use(RequireRole(models.RoleWasher))
	drivers.HandleFunc("", usersHandler.ListDrivers).Methods("GET")

	uploads := apiV1.PathPrefix("/uploads").Subrouter()
	uploads.Use(RequireRole(models.RoleWasher))
	uploads.HandleFunc("", uploadsHandler.CreateUpload).Methods("POST")
	uploads.HandleFunc("/view-url", uploadsHandler.ViewURL).Methods("POST")

	// Manager endpoints
	users := apiV1.PathPrefix("/users").Subrouter()
	users.Use(RequireRole(models.RoleManager))
	users.HandleFunc("", usersHandler.ListUsers).Methods("GET")
	users.HandleFunc("", usersHandler.CreateUser).Methods("POST")
	users.HandleFunc("/{id}", usersHandler.UpdateUser).Methods("PUT")
	users.HandleFunc("/{id}", usersHandler.DeleteUser).Methods("DELETE")

	stats := apiV1.PathPrefix("/stats").Subrouter()
	stats.Use(RequireRole(models.RoleManager))
	stats.HandleFunc("", washesHandler.Stats).Methods("GET")

	cleanupRoutes := apiV1.PathPrefix("/cleanup").Subrouter()
	cleanupRoutes.Use(RequireRole(models.RoleManager))
	cleanupRoutes.HandleFunc("", cleanupHandler.RunCleanup).Methods("POST")

	return r, nil
}
