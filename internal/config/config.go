package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hakchin/ppst/internal/models"
	"github.com/hakchin/ppst/internal/ratelimit"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PPST"

// Config holds runtime configuration values for the site service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	LogLevel                string
	ProxyHeader             string
	CORSOrigins             string
	ContactsDir             string
	RateLimitWindow         time.Duration
	RateLimitSweepInterval  time.Duration
	ContactPolicy           models.ContactPolicy
	DedupeTTL               time.Duration
	RedisURL                string
	ExportJWTSecret         string
	ExportRequestsPerMinute int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ExportEnabled reports whether the export routes should be exposed.
func (c Config) ExportEnabled() bool {
	return c.ExportJWTSecret != ""
}

// NewViper returns a viper instance with the environment bindings and defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PPST Math Academy")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.proxy_header", "")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("contacts.dir", "data/contacts")
	v.SetDefault("rate_limit.seconds", int(ratelimit.DefaultWindow/time.Second))
	v.SetDefault("rate_limit.sweep_interval", "5m")
	v.SetDefault("contact.policy", string(models.ContactPolicyPhone))
	v.SetDefault("contact.dedupe_ttl", "5m")
	v.SetDefault("export.requests_per_minute", 10)

	// The bare name is kept for deployments configured before the prefix existed.
	_ = v.BindEnv("rate_limit.seconds", EnvPrefix+"_RATE_LIMIT_SECONDS", "RATE_LIMIT_SECONDS")

	return v
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// FromViper builds a Config from v, rejecting malformed values.
func FromViper(v *viper.Viper) (Config, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(v.GetString("rate_limit.seconds")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit seconds: %w", err)
	}
	if seconds < 0 {
		return Config{}, fmt.Errorf("rate limit seconds must not be negative, got %d", seconds)
	}

	sweep, err := parseDuration(v, "rate_limit.sweep_interval")
	if err != nil {
		return Config{}, err
	}

	dedupeTTL, err := parseDuration(v, "contact.dedupe_ttl")
	if err != nil {
		return Config{}, err
	}

	policy, err := models.ParseContactPolicy(v.GetString("contact.policy"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid contact policy: %w", err)
	}

	perMinute := v.GetInt("export.requests_per_minute")
	if perMinute <= 0 {
		return Config{}, fmt.Errorf("export requests per minute must be positive, got %d", perMinute)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		LogLevel:                strings.ToLower(v.GetString("log.level")),
		ProxyHeader:             v.GetString("http.proxy_header"),
		CORSOrigins:             v.GetString("http.cors_origins"),
		ContactsDir:             v.GetString("contacts.dir"),
		RateLimitWindow:         time.Duration(seconds) * time.Second,
		RateLimitSweepInterval:  sweep,
		ContactPolicy:           policy,
		DedupeTTL:               dedupeTTL,
		RedisURL:                v.GetString("redis.url"),
		ExportJWTSecret:         v.GetString("export.jwt_secret"),
		ExportRequestsPerMinute: perMinute,
	}

	if strings.TrimSpace(cfg.ContactsDir) == "" {
		return Config{}, fmt.Errorf("contacts dir must not be empty")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, raw)
	}
	return d, nil
}
