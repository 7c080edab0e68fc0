package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides: APP_SERVER_PORT -> server.port.
const EnvPrefix = "APP_"

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Payment   PaymentConfig   `koanf:"payment"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Log       LogConfig       `koanf:"log"`
}

type AppConfig struct {
	Name          string `koanf:"name"`
	BaseURL       string `koanf:"baseurl"` // front end, used for links in emails
	AdminEmail    string `koanf:"adminemail"`
	AdminPassword string `koanf:"adminpassword"`
}

type ServerConfig struct {
	Port         string        `koanf:"port"`
	Env          string        `koanf:"env"`
	ReadTimeout  time.Duration `koanf:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
	CORSOrigins  []string      `koanf:"corsorigins"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // mysql, postgres, sqlite
	DSN             string        `koanf:"dsn"`
	LogLevel        string        `koanf:"loglevel"`
	MaxIdleConns    int           `koanf:"maxidleconns"`
	MaxOpenConns    int           `koanf:"maxopenconns"`
	ConnMaxLifetime time.Duration `koanf:"connmaxlifetime"`
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type JWTConfig struct {
	AccessSecret  string        `koanf:"accesssecret"`
	RefreshSecret string        `koanf:"refreshsecret"`
	AccessExpiry  time.Duration `koanf:"accessexpiry"`
	RefreshExpiry time.Duration `koanf:"refreshexpiry"`
	ResetExpiry   time.Duration `koanf:"resetexpiry"`
	VerifyExpiry  time.Duration `koanf:"verifyexpiry"`
	Issuer        string        `koanf:"issuer"`
}

type PaymentConfig struct {
	Gateway         string        `koanf:"gateway"` // only "stub" ships today
	SuccessRate     float64       `koanf:"successrate"`
	ProcessingDelay time.Duration `koanf:"processingdelay"`
	WebhookSecret   string        `koanf:"webhooksecret"`
	RedirectBaseURL string        `koanf:"redirectbaseurl"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	UseTLS   bool   `koanf:"tls"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "CodeCamp",
			BaseURL: "http://localhost:3000",
		},
		Server: ServerConfig{
			Port:         "8080",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "codecamp.db",
			LogLevel:        "error",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		JWT: JWTConfig{
			AccessSecret:  "change-me-in-production",
			RefreshSecret: "change-me-refresh",
			AccessExpiry:  time.Hour,
			RefreshExpiry: 168 * time.Hour,
			ResetExpiry:   time.Hour,
			VerifyExpiry:  72 * time.Hour,
			Issuer:        "codecamp",
		},
		Payment: PaymentConfig{
			Gateway:         "stub",
			SuccessRate:     0.9,
			ProcessingDelay: 2 * time.Second,
			RedirectBaseURL: "http://localhost:3000/payment",
		},
		SMTP: SMTPConfig{
			Port:   587,
			From:   "CodeCamp <noreply@codecamp.local>",
			UseTLS: true,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads defaults, then the yaml file at path (if it exists), then APP_* env vars.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Default()
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps APP_SERVER_READTIMEOUT to server.readtimeout.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.Replace(strings.ToLower(s), "_", ".", 1)
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.IsProduction() {
		def := Default()
		if c.JWT.AccessSecret == def.JWT.AccessSecret {
			return fmt.Errorf("config: jwt.accesssecret must be set in production")
		}
		if c.JWT.RefreshSecret == def.JWT.RefreshSecret {
			return fmt.Errorf("config: jwt.refreshsecret must be set in production")
		}
		if c.Payment.WebhookSecret == "" {
			return fmt.Errorf("config: payment.webhooksecret must be set in production")
		}
	}
	switch c.Payment.Gateway {
	case "stub":
	default:
		return fmt.Errorf("config: unsupported payment gateway %q", c.Payment.Gateway)
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		return fmt.Errorf("config: payment.successrate must be between 0 and 1")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("config: ratelimit requests and window must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }
