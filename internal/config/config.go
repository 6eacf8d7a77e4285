package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	WorkerCount   int           `yaml:"worker_count"`
	Storage       StorageConfig `yaml:"storage"`
	Upload        UploadConfig  `yaml:"upload"`
	SMTP          SMTPConfig    `yaml:"smtp"`
	Cleanup       CleanupConfig `yaml:"cleanup"`
}

type StorageConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Region       string        `yaml:"region"`
	Bucket       string        `yaml:"bucket"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	UseSSL       bool          `yaml:"use_ssl"`
	Prefix       string        `yaml:"prefix"`
	UploadExpiry time.Duration `yaml:"upload_expiry"`
	ViewExpiry   time.Duration `yaml:"view_expiry"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type CleanupConfig struct {
	// Schedule is an optional cron expression; when set the server runs
	// the storage sweep automatically with DaysOld as the age threshold.
	Schedule string `yaml:"schedule"`
	DaysOld  int    `yaml:"days_old"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("WASHTRACK_ADDR", ":8080"),
		JWTSecret:     getEnv("WASHTRACK_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("WASHTRACK_DATABASE_PATH", "washtrack.db"),
		TokenDuration: 1 * time.Hour,
		WorkerCount:   2,
		Storage: StorageConfig{
			Endpoint:     getEnv("WASHTRACK_STORAGE_ENDPOINT", "s3.amazonaws.com"),
			Region:       getEnv("WASHTRACK_STORAGE_REGION", "us-east-1"),
			Bucket:       getEnv("WASHTRACK_STORAGE_BUCKET", "washtrack"),
			AccessKey:    os.Getenv("WASHTRACK_STORAGE_ACCESS_KEY"),
			SecretKey:    os.Getenv("WASHTRACK_STORAGE_SECRET_KEY"),
			UseSSL:       true,
			Prefix:       "washes",
			UploadExpiry: 1 * time.Hour,
			ViewExpiry:   24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSizeMB: getEnvInt("WASHTRACK_UPLOAD_MAX_SIZE_MB", 1),
		},
		SMTP: SMTPConfig{
			Host: getEnv("WASHTRACK_SMTP_HOST", ""),
			Port: getEnvInt("WASHTRACK_SMTP_PORT", 587),
			From: getEnv("WASHTRACK_SMTP_FROM", "noreply@washtrack.local"),
		},
		Cleanup: CleanupConfig{
			DaysOld: 30,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
