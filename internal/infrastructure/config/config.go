package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Chrome    ChromeConfig
	Gmail     GmailConfig
	Crypto    CryptoConfig
	Render    RenderConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Pyroscope PyroscopeConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Auth modes
const (
	AuthModeFirebase = "firebase"
	AuthModeHMAC     = "hmac"
)

// AuthConfig selects how bearer tokens are verified.
type AuthConfig struct {
	Mode       string // firebase or hmac
	ProjectID  string
	CertsURL   string
	HMACSecret string
	HMACIssuer string
}

// StorageConfig holds object store settings
type StorageConfig struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
	SignedURLTTL time.Duration
	MaxPresign   time.Duration
}

// ChromeConfig holds headless browser settings
type ChromeConfig struct {
	RemoteURL     string
	ExecPath      string
	RenderTimeout time.Duration
	MaxConcurrent int
	MarginPx      float64
}

// GmailConfig holds the mail provider OAuth client
type GmailConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendURL      string
	StateSecret      string
	StateTTL         time.Duration
	SendEndpoint     string
	UserinfoEndpoint string
}

// CryptoConfig holds the key that seals stored refresh tokens
type CryptoConfig struct {
	TokenKey string // base64, 32 bytes once decoded
}

// TokenKeyBytes decodes the sealing key.
func (c CryptoConfig) TokenKeyBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.TokenKey)
}

// RenderConfig holds pipeline coordination settings
type RenderConfig struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	LogsEnabled       bool
	DBTraceEnabled    bool
}

// PyroscopeConfig holds continuous profiling settings
type PyroscopeConfig struct {
	Enabled       bool
	ServerAddress string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVOICER_ prefix (e.g., INVOICER_STORAGE_BUCKET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Mode:       v.GetString("auth.mode"),
			ProjectID:  v.GetString("auth.project_id"),
			CertsURL:   v.GetString("auth.certs_url"),
			HMACSecret: v.GetString("auth.hmac_secret"),
			HMACIssuer: v.GetString("auth.hmac_issuer"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			Bucket:       v.GetString("storage.bucket"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			SignedURLTTL: v.GetDuration("storage.signed_url_ttl"),
			MaxPresign:   v.GetDuration("storage.max_presign"),
		},
		Chrome: ChromeConfig{
			RemoteURL:     v.GetString("chrome.remote_url"),
			ExecPath:      v.GetString("chrome.exec_path"),
			RenderTimeout: v.GetDuration("chrome.render_timeout"),
			MaxConcurrent: v.GetInt("chrome.max_concurrent"),
			MarginPx:      v.GetFloat64("chrome.margin_px"),
		},
		Gmail: GmailConfig{
			ClientID:         v.GetString("gmail.client_id"),
			ClientSecret:     v.GetString("gmail.client_secret"),
			RedirectURL:      v.GetString("gmail.redirect_url"),
			FrontendURL:      v.GetString("gmail.frontend_url"),
			StateSecret:      v.GetString("gmail.state_secret"),
			StateTTL:         v.GetDuration("gmail.state_ttl"),
			SendEndpoint:     v.GetString("gmail.send_endpoint"),
			UserinfoEndpoint: v.GetString("gmail.userinfo_endpoint"),
		},
		Crypto: CryptoConfig{
			TokenKey: v.GetString("crypto.token_key"),
		},
		Render: RenderConfig{
			LockTTL:  v.GetDuration("render.lock_ttl"),
			LockWait: v.GetDuration("render.lock_wait"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Pyroscope: PyroscopeConfig{
			Enabled:       v.GetBool("pyroscope.enabled"),
			ServerAddress: v.GetString("pyroscope.server_address"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoice-renderer"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "invoicer"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "invoicer.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeFirebase
	}
	if cfg.Auth.CertsURL == "" {
		cfg.Auth.CertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.SignedURLTTL == 0 {
		cfg.Storage.SignedURLTTL = 30 * 24 * time.Hour
	}
	if cfg.Chrome.RenderTimeout == 0 {
		cfg.Chrome.RenderTimeout = 30 * time.Second
	}
	if cfg.Chrome.MaxConcurrent == 0 {
		cfg.Chrome.MaxConcurrent = 4
	}
	if cfg.Chrome.MarginPx == 0 {
		cfg.Chrome.MarginPx = 20
	}
	if cfg.Gmail.StateTTL == 0 {
		cfg.Gmail.StateTTL = 10 * time.Minute
	}
	if cfg.Render.LockTTL == 0 {
		cfg.Render.LockTTL = 2 * time.Minute
	}
	if cfg.Render.LockWait == 0 {
		cfg.Render.LockWait = 45 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// must outlive a full render
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Pyroscope.ServerAddress == "" {
		cfg.Pyroscope.ServerAddress = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Auth.Mode {
	case AuthModeFirebase, AuthModeHMAC:
	default:
		return fmt.Errorf("auth.mode must be firebase or hmac, got %q", c.Auth.Mode)
	}
	if c.Chrome.MaxConcurrent < 0 {
		return fmt.Errorf("chrome.max_concurrent cannot be negative")
	}
	if c.Crypto.TokenKey != "" {
		key, err := c.Crypto.TokenKeyBytes()
		if err != nil {
			return fmt.Errorf("crypto.token_key must be base64: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("crypto.token_key must decode to 32 bytes, got %d", len(key))
		}
	}

	if c.App.IsProduction() {
		if c.Auth.Mode != AuthModeFirebase {
			return fmt.Errorf("auth.mode must be firebase in production")
		}
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required in production")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required in production")
		}
		if c.Crypto.TokenKey == "" {
			return fmt.Errorf("crypto.token_key is required in production")
		}
		if len(c.Gmail.StateSecret) < 32 {
			return fmt.Errorf("gmail.state_secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or IP restricted in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
