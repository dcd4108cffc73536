package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	gkstrings "gatekeeper/pkg/platform/strings"
)

const (
	// EnvPrefix marks the environment variables read by Load.
	// GATEKEEPER_PROVIDER__JWT_SECRET sets provider.jwt_secret.
	EnvPrefix = "GATEKEEPER_"

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"

	defaultConfigPath = "config.yaml"

	// MinSessionMaxAge is the floor for session.max_age.
	MinSessionMaxAge = time.Minute
)

type Config struct {
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
	Kafka    Kafka    `koanf:"kafka"`
	Provider Provider `koanf:"provider"`
	Session  Session  `koanf:"session"`
	MFA      MFA      `koanf:"mfa"`
	Lockout  Lockout  `koanf:"lockout"`
	Audit    Audit    `koanf:"audit"`
	Admin    Admin    `koanf:"admin"`
	Outbox   Outbox   `koanf:"outbox"`
	Log      Log      `koanf:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	SecureCookies   bool          `koanf:"secure_cookies"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// Database is optional. An empty URL selects the in-memory stores.
type Database struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// Redis is optional. An empty URL keeps pending second-factor tokens in memory.
type Redis struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Kafka is optional. No brokers disables claims propagation.
type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	Acks    string   `koanf:"acks"`
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Provider points at the hosted identity provider.
type Provider struct {
	URL               string        `koanf:"url"`
	APIKey            string        `koanf:"api_key"`
	ServiceRoleKey    string        `koanf:"service_role_key"`
	JWTSecret         string        `koanf:"jwt_secret"`
	Timeout           time.Duration `koanf:"timeout"`
	AccessTokenCookie string        `koanf:"access_token_cookie"`
}

type Session struct {
	MaxAge time.Duration `koanf:"max_age"`
}

type MFA struct {
	PendingTTL time.Duration `koanf:"pending_ttl"`
	CookieName string        `koanf:"cookie_name"`
}

// Lockout bounds failed login and second-factor attempts per client address.
type Lockout struct {
	Attempts     int           `koanf:"attempts"`
	Window       time.Duration `koanf:"window"`
	LockDuration time.Duration `koanf:"lock_duration"`
}

type Audit struct {
	PageSize int `koanf:"page_size"`
}

type Admin struct {
	MinLevel          int    `koanf:"min_level"`
	LoginRedirect     string `koanf:"login_redirect"`
	ForbiddenRedirect string `koanf:"forbidden_redirect"`
}

type Outbox struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	BatchSize    int           `koanf:"batch_size"`
}

type Log struct {
	Level       string `koanf:"level"`
	Environment string `koanf:"environment"`
}

func defaultConfig() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SecureCookies:   true,
			MaxBodyBytes:    1 << 20,
		},
		Database: Database{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic: "gatekeeper.role.claims",
			Acks:  "all",
		},
		Provider: Provider{
			Timeout:           5 * time.Second,
			AccessTokenCookie: "sb-access-token",
		},
		Session: Session{MaxAge: 7 * 24 * time.Hour},
		MFA: MFA{
			PendingTTL: 10 * time.Minute,
			CookieName: "pending_mfa_user",
		},
		Lockout: Lockout{
			Attempts:     5,
			Window:       15 * time.Minute,
			LockDuration: 15 * time.Minute,
		},
		Audit: Audit{PageSize: 20},
		Admin: Admin{
			MinLevel:          90,
			LoginRedirect:     "/login",
			ForbiddenRedirect: "/dashboard",
		},
		Outbox: Outbox{
			PollInterval: 500 * time.Millisecond,
			BatchSize:    100,
		},
		Log: Log{
			Level:       "info",
			Environment: "development",
		},
	}
}

// sliceKeys arrive from the environment as comma separated strings.
var sliceKeys = []string{"kafka.brokers"}

// Load layers struct defaults, the optional YAML file and GATEKEEPER_
// environment variables, in that order of precedence, then validates.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceKeys(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps GATEKEEPER_MFA__PENDING_TTL to mfa.pending_ttl.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// configPath returns CONFIG_PATH when set, else config.yaml when it exists.
func configPath() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		if err := k.Set(key, gkstrings.SplitList(raw)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider.URL == "" {
		errs = append(errs, errors.New("provider.url is required"))
	}
	if c.Provider.JWTSecret == "" {
		errs = append(errs, errors.New("provider.jwt_secret is required"))
	}
	if c.Session.MaxAge < MinSessionMaxAge {
		errs = append(errs, fmt.Errorf("session.max_age must be at least %s", MinSessionMaxAge))
	}
	if c.MFA.PendingTTL <= 0 {
		errs = append(errs, errors.New("mfa.pending_ttl must be positive"))
	}
	if c.Lockout.Attempts < 1 {
		errs = append(errs, errors.New("lockout.attempts must be at least 1"))
	}
	if c.Lockout.Window <= 0 || c.Lockout.LockDuration <= 0 {
		errs = append(errs, errors.New("lockout.window and lockout.lock_duration must be positive"))
	}
	if c.Audit.PageSize < 1 {
		errs = append(errs, errors.New("audit.page_size must be at least 1"))
	}
	if c.Admin.MinLevel < 1 || c.Admin.MinLevel > 100 {
		errs = append(errs, errors.New("admin.min_level must be within 1..100"))
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}
