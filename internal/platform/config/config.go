package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultDBMaxOpenConns   = 25
	defaultDBMaxIdleConns   = 5
	defaultDBConnMaxLife    = 30 * time.Minute
	defaultStorageBackend   = "r2"
	defaultCarrier          = "israel_post"
	defaultSenderName       = "Footprint"
	defaultSenderStreet     = "Rothschild 1"
	defaultSenderCity       = "Tel Aviv"
	defaultSenderPostalCode = "6688101"
	defaultSenderPhone      = "03-1234567"
	defaultSenderCountry    = "IL"
	defaultPackageLengthCM  = 35
	defaultPackageWidthCM   = 30
	defaultPackageHeightCM  = 5
	defaultPackageWeightG   = 500
	defaultPackageDesc      = "Baby footprint art"
	defaultRateLimitGeneral = 120
	defaultRateLimitStrict  = 20
	defaultRateLimitWindow  = time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Shipping   ShippingConfig
	Email      EmailConfig
	RateLimits RateLimitConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AdminAPIToken string
}

// DatabaseConfig stores the Postgres connection parameters.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig selects and configures the object storage backend.
// Backend is "r2" or "gcs"; only the matching sub-struct needs values.
type StorageConfig struct {
	Backend string
	R2      R2Config
	GCS     GCSConfig
}

// R2Config holds Cloudflare R2 credentials and bucket settings.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	PublicBaseURL   string
}

// ShippingConfig groups carrier credentials and the warehouse sender
// profile applied to every outgoing shipment.
type ShippingConfig struct {
	DefaultCarrier string
	IsraelPost     IsraelPostConfig
	Sender         SenderConfig
	Package        PackageConfig
	Description    string
}

// IsraelPostConfig holds the Israel Post API credentials.
type IsraelPostConfig struct {
	APIKey     string
	CustomerID string
	BaseURL    string
}

// SenderConfig is the warehouse pickup address.
type SenderConfig struct {
	Name       string
	Street     string
	City       string
	PostalCode string
	Phone      string
	Country    string
}

// PackageConfig is the standard parcel used for all prints.
type PackageConfig struct {
	LengthCM int
	WidthCM  int
	HeightCM int
	WeightG  int
}

// EmailConfig holds the Resend settings for transactional mail.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
}

// RateLimitConfig controls request throttling on the admin surface.
type RateLimitConfig struct {
	GeneralPerWindow int
	StrictPerWindow  int
	Window           time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults,
// .env overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:          stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:   durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:  durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:   durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			AdminAPIToken: stringWithDefault(lookup, "API_ADMIN_API_TOKEN", ""),
		},
		Database: DatabaseConfig{
			DSN:             stringWithDefault(lookup, "API_DATABASE_URL", ""),
			MaxOpenConns:    intWithDefault(lookup, "API_DATABASE_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
			MaxIdleConns:    intWithDefault(lookup, "API_DATABASE_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
			ConnMaxLifetime: durationWithDefault(lookup, "API_DATABASE_CONN_MAX_LIFETIME", defaultDBConnMaxLife),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(stringWithDefault(lookup, "API_STORAGE_BACKEND", defaultStorageBackend)),
			R2: R2Config{
				AccountID:       stringWithDefault(lookup, "API_R2_ACCOUNT_ID", ""),
				AccessKeyID:     stringWithDefault(lookup, "API_R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: stringWithDefault(lookup, "API_R2_SECRET_ACCESS_KEY", ""),
				Bucket:          stringWithDefault(lookup, "API_R2_BUCKET", ""),
				PublicBaseURL:   stringWithDefault(lookup, "API_R2_PUBLIC_BASE_URL", ""),
			},
			GCS: GCSConfig{
				Bucket:          stringWithDefault(lookup, "API_GCS_BUCKET", ""),
				CredentialsFile: stringWithDefault(lookup, "API_GCS_CREDENTIALS_FILE", ""),
				PublicBaseURL:   stringWithDefault(lookup, "API_GCS_PUBLIC_BASE_URL", ""),
			},
		},
		Shipping: ShippingConfig{
			DefaultCarrier: strings.ToLower(stringWithDefault(lookup, "API_SHIPPING_DEFAULT_CARRIER", defaultCarrier)),
			IsraelPost: IsraelPostConfig{
				APIKey:     stringWithDefault(lookup, "API_ISRAEL_POST_API_KEY", ""),
				CustomerID: stringWithDefault(lookup, "API_ISRAEL_POST_CUSTOMER_ID", ""),
				BaseURL:    stringWithDefault(lookup, "API_ISRAEL_POST_BASE_URL", ""),
			},
			Sender: SenderConfig{
				Name:       stringWithDefault(lookup, "API_SHIPPING_SENDER_NAME", defaultSenderName),
				Street:     stringWithDefault(lookup, "API_SHIPPING_SENDER_STREET", defaultSenderStreet),
				City:       stringWithDefault(lookup, "API_SHIPPING_SENDER_CITY", defaultSenderCity),
				PostalCode: stringWithDefault(lookup, "API_SHIPPING_SENDER_POSTAL_CODE", defaultSenderPostalCode),
				Phone:      stringWithDefault(lookup, "API_SHIPPING_SENDER_PHONE", defaultSenderPhone),
				Country:    stringWithDefault(lookup, "API_SHIPPING_SENDER_COUNTRY", defaultSenderCountry),
			},
			Package: PackageConfig{
				LengthCM: intWithDefault(lookup, "API_SHIPPING_PACKAGE_LENGTH_CM", defaultPackageLengthCM),
				WidthCM:  intWithDefault(lookup, "API_SHIPPING_PACKAGE_WIDTH_CM", defaultPackageWidthCM),
				HeightCM: intWithDefault(lookup, "API_SHIPPING_PACKAGE_HEIGHT_CM", defaultPackageHeightCM),
				WeightG:  intWithDefault(lookup, "API_SHIPPING_PACKAGE_WEIGHT_G", defaultPackageWeightG),
			},
			Description: stringWithDefault(lookup, "API_SHIPPING_DESCRIPTION", defaultPackageDesc),
		},
		Email: EmailConfig{
			ResendAPIKey: stringWithDefault(lookup, "API_RESEND_API_KEY", ""),
			FromEmail:    stringWithDefault(lookup, "API_EMAIL_FROM", ""),
		},
		RateLimits: RateLimitConfig{
			GeneralPerWindow: intWithDefault(lookup, "API_RATELIMIT_GENERAL", defaultRateLimitGeneral),
			StrictPerWindow:  intWithDefault(lookup, "API_RATELIMIT_STRICT", defaultRateLimitStrict),
			Window:           durationWithDefault(lookup, "API_RATELIMIT_WINDOW", defaultRateLimitWindow),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Database.DSN == "" {
		missing = append(missing, "Database.DSN")
	}
	switch cfg.Storage.Backend {
	case "r2":
		if cfg.Storage.R2.AccountID == "" {
			missing = append(missing, "Storage.R2.AccountID")
		}
		if cfg.Storage.R2.AccessKeyID == "" {
			missing = append(missing, "Storage.R2.AccessKeyID")
		}
		if cfg.Storage.R2.SecretAccessKey == "" {
			missing = append(missing, "Storage.R2.SecretAccessKey")
		}
		if cfg.Storage.R2.Bucket == "" {
			missing = append(missing, "Storage.R2.Bucket")
		}
		if cfg.Storage.R2.PublicBaseURL == "" {
			missing = append(missing, "Storage.R2.PublicBaseURL")
		}
	case "gcs":
		if cfg.Storage.GCS.Bucket == "" {
			missing = append(missing, "Storage.GCS.Bucket")
		}
	default:
		missing = append(missing, "Storage.Backend")
	}
	if cfg.RateLimits.GeneralPerWindow <= 0 {
		missing = append(missing, "RateLimits.GeneralPerWindow")
	}
	if cfg.RateLimits.StrictPerWindow <= 0 {
		missing = append(missing, "RateLimits.StrictPerWindow")
	}
	if cfg.RateLimits.Window <= 0 {
		missing = append(missing, "RateLimits.Window")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
