// Package config assembles runtime configuration from defaults, an optional
// .env file, and environment variables, organised by concern.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "3000"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultBackendURL   = "http://localhost:8000/api/accounting"
	defaultCartPath     = "data/cart.json"
	defaultSettingsTTL  = 5 * time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Yoco     YocoConfig
	Cart     CartConfig
	Settings SettingsConfig
	CORS     CORSConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig points at the accounting backend API.
type BackendConfig struct {
	BaseURL string
}

// YocoConfig carries the card payment widget settings. An empty public key
// disables card payments; cash and EFT keep working.
type YocoConfig struct {
	PublicKey string
}

// CartConfig locates the persisted cart file.
type CartConfig struct {
	FilePath string
}

// SettingsConfig controls the company settings cache and fallback.
type SettingsConfig struct {
	FallbackPath string
	TTL          time.Duration
}

// CORSConfig lists the origins allowed to call the JSON endpoints.
type CORSConfig struct {
	AllowedOrigins []string
}

// ValidationError is returned when required configuration fields are missing
// or invalid.
type ValidationError struct {
	fields []string
}

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

// WithEnvMap injects an explicit key/value map for environment lookups.
// Values in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided
// maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides, and
// environment variables.
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
			Port:         stringWithDefault(lookup, "WEB_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "WEB_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "WEB_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "WEB_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Backend: BackendConfig{
			BaseURL: stringWithDefault(lookup, "WEB_BACKEND_API_URL", defaultBackendURL),
		},
		Yoco: YocoConfig{
			PublicKey: stringWithDefault(lookup, "WEB_YOCO_PUBLIC_KEY", ""),
		},
		Cart: CartConfig{
			FilePath: stringWithDefault(lookup, "WEB_CART_FILE", defaultCartPath),
		},
		Settings: SettingsConfig{
			FallbackPath: stringWithDefault(lookup, "WEB_SETTINGS_FALLBACK_FILE", ""),
			TTL:          durationWithDefault(lookup, "WEB_SETTINGS_TTL", defaultSettingsTTL),
		},
		CORS: CORSConfig{
			AllowedOrigins: csvWithDefault(lookup, "WEB_CORS_ALLOWED_ORIGINS"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		missing = append(missing, "Backend.BaseURL")
	}
	if strings.TrimSpace(cfg.Cart.FilePath) == "" {
		missing = append(missing, "Cart.FilePath")
	}
	if cfg.Settings.TTL <= 0 {
		missing = append(missing, "Settings.TTL")
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
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
