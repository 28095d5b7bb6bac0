package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel       int   `env:"LOG_LEVEL" envDefault:"0"`
	HTTP           HTTP  `envPrefix:"HTTP_"`
	Admin          Admin `envPrefix:"ADMIN_"`
	Leads          Leads `envPrefix:"LEADS_"`
	Blob           Blob  `envPrefix:"BLOB_"`
	MinIO          MinIO `envPrefix:"MINIO_"`
	Redis          Redis `envPrefix:"REDIS_"`
	NATS           NATS  `envPrefix:"NATS_"`
	MetricsEnabled bool  `env:"METRICS_ENABLED" envDefault:"true"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	EnableHTTPS        bool          `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string        `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string        `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	PathPrefix         string        `env:"PATH_PREFIX" envDefault:"/api"`
	StaticDir          string        `env:"STATIC_DIR"`
	ReadTimeout        time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
}

// Admin contains the credentials guarding the admin endpoints.
type Admin struct {
	User     string `env:"USER" envDefault:"admin"`
	Password string `env:"PASS" envDefault:"admin"`
}

// Leads contains file storage parameters.
type Leads struct {
	StorageFile string `env:"STORAGE_FILE"`
	SeedFile    string `env:"SEED_FILE" envDefault:"data/leads.json"`
}

// Blob contains remote store selection parameters.
type Blob struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Driver    string `env:"DRIVER" envDefault:"minio"`
	StoreName string `env:"STORE_NAME" envDefault:"leads"`
}

// MinIO contains object storage parameters.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"leads-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"leads-secret-key"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Redis contains Redis connection parameters.
type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// NATS contains NATS connection parameters.
type NATS struct {
	URL string `env:"URL" envDefault:"nats://localhost:4222"`
}

// NewConfig loads configuration from an optional .env file and environment
// variables. Variables already set in the environment win.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
