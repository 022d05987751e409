package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production-please"

// Recipe write policies.
const (
	WritePolicyAdmin         = "admin"
	WritePolicyAuthenticated = "authenticated"
)

// Image backends.
const (
	ImageBackendLocal = "local"
	ImageBackendS3    = "s3"
)

type Config struct {
	Env        string
	BcryptCost int
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Uploads    UploadsConfig
	S3         S3Config
	Janitor    JanitorConfig
	Log        LogConfig
	Admin      AdminConfig
	Policy     PolicyConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret   string
	UserTTL  time.Duration
	AdminTTL time.Duration
}

type UploadsConfig struct {
	Backend  string
	Dir      string // where the local backend writes recipe images
	Root     string // directory served under /uploads/
	MaxBytes int64
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

type JanitorConfig struct {
	Enabled  bool
	Schedule string
	Grace    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig seeds an administrator at startup when Email and Password
// are both set.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

type PolicyConfig struct {
	RecipeWrite string
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 5000),
			ReadTimeout:     time.Duration(getEnvAsInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvAsInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 10)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "recipe_finder"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", defaultJWTSecret),
			UserTTL:  time.Duration(getEnvAsInt("JWT_USER_TTL_HOURS", 720)) * time.Hour,
			AdminTTL: time.Duration(getEnvAsInt("JWT_ADMIN_TTL_HOURS", 24)) * time.Hour,
		},
		Uploads: UploadsConfig{
			Backend:  strings.ToLower(getEnv("IMAGE_BACKEND", ImageBackendLocal)),
			Dir:      getEnv("UPLOAD_DIR", "public/uploads/recipes"),
			Root:     getEnv("UPLOAD_ROOT", "public/uploads"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_MB", 5)) << 20,
		},
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", "recipes"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Janitor: JanitorConfig{
			Enabled:  getEnvAsBool("JANITOR_ENABLED", true),
			Schedule: getEnv("JANITOR_SCHEDULE", "@hourly"),
			Grace:    getEnvAsDuration("JANITOR_GRACE", time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Policy: PolicyConfig{
			RecipeWrite: strings.ToLower(getEnv("RECIPE_WRITE_POLICY", WritePolicyAdmin)),
		},
	}
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Env == "production" && c.JWT.Secret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWT.UserTTL <= 0 || c.JWT.AdminTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	switch c.Policy.RecipeWrite {
	case WritePolicyAdmin, WritePolicyAuthenticated:
	default:
		errs = append(errs, fmt.Errorf("unknown RECIPE_WRITE_POLICY %q", c.Policy.RecipeWrite))
	}
	switch c.Uploads.Backend {
	case ImageBackendLocal:
	case ImageBackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 image backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IMAGE_BACKEND %q", c.Uploads.Backend))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_MB must be positive"))
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
