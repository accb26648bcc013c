// Package config loads streamhub settings from defaults, an optional YAML file,
// a .env file and environment variables, in increasing order of priority.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/streamhub/config.yaml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Log      LogConfig      `koanf:"log"`
	Seed     SeedConfig     `koanf:"seed"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Mode            string        `koanf:"mode"` // gin mode: debug | release | test
	PublicDir       string        `koanf:"public_dir"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// URL is the connection string; for SQLite a file path or file: URI.
	URL   string `koanf:"url"`
	Debug bool   `koanf:"debug"`
}

type AuthConfig struct {
	UserSecret         string        `koanf:"user_secret"`
	AdminSecret        string        `koanf:"admin_secret"`
	UserTokenTTL       time.Duration `koanf:"user_token_ttl"`
	AdminTokenTTL      time.Duration `koanf:"admin_token_ttl"`
	BcryptCost         int           `koanf:"bcrypt_cost"`
	LoginRatePerMinute int           `koanf:"login_rate_per_minute"`
}

type UploadsConfig struct {
	Dir       string `koanf:"dir"`
	MaxSizeMB int64  `koanf:"max_size_mb"`
}

type RealtimeConfig struct {
	GRPCAddr      string `koanf:"grpc_addr"`
	TCPSyncAddr   string `koanf:"tcp_sync_addr"`
	UDPNotifyAddr string `koanf:"udp_notify_addr"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	Dir   string `koanf:"dir"`
}

type SeedConfig struct {
	AdminUsername string   `koanf:"admin_username"`
	AdminPassword string   `koanf:"admin_password"`
	Categories    []string `koanf:"categories"`
	ShowsFile     string   `koanf:"shows_file"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "./data/streamhub.db",
		},
		Auth: AuthConfig{
			UserTokenTTL:       7 * 24 * time.Hour,
			AdminTokenTTL:      12 * time.Hour,
			BcryptCost:         bcrypt.DefaultCost,
			LoginRatePerMinute: 30,
		},
		Uploads: UploadsConfig{
			Dir:       "./public/uploads",
			MaxSizeMB: 16,
		},
		Realtime: RealtimeConfig{
			GRPCAddr:      ":50051",
			TCPSyncAddr:   ":9090",
			UDPNotifyAddr: ":7070",
		},
		Log: LogConfig{
			Level: "info",
		},
		Seed: SeedConfig{
			AdminUsername: "admin",
			AdminPassword: "admin",
			Categories:    []string{"K-Drama", "Anime", "Popular", "Latest"},
			ShowsFile:     "./data/shows.json",
		},
	}
}

// Load builds the configuration. A missing .env or config file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitCommaList(k, "seed.categories"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"database_url":          "database.url",
	"database_debug":        "database.debug",
	"http_addr":             "server.addr",
	"gin_mode":              "server.mode",
	"public_dir":            "server.public_dir",
	"jwt_secret":            "auth.user_secret",
	"admin_jwt_secret":      "auth.admin_secret",
	"user_token_ttl":        "auth.user_token_ttl",
	"admin_token_ttl":       "auth.admin_token_ttl",
	"bcrypt_cost":           "auth.bcrypt_cost",
	"login_rate_per_minute": "auth.login_rate_per_minute",
	"upload_dir":            "uploads.dir",
	"upload_max_size_mb":    "uploads.max_size_mb",
	"grpc_addr":             "realtime.grpc_addr",
	"tcp_sync_addr":         "realtime.tcp_sync_addr",
	"udp_notify_addr":       "realtime.udp_notify_addr",
	"log_level":             "log.level",
	"log_dir":               "log.dir",
	"seed_admin_username":   "seed.admin_username",
	"seed_admin_password":   "seed.admin_password",
	"seed_categories":       "seed.categories",
	"seed_shows_file":       "seed.shows_file",
}

// envTransformFunc maps known environment variables to config paths and drops the rest.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url cannot be empty")
	}
	if c.Server.Addr == "" {
		return errors.New("server addr cannot be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode %q must be debug, release or test", c.Server.Mode)
	}
	if c.Auth.UserSecret != "" && c.Auth.UserSecret == c.Auth.AdminSecret {
		return errors.New("user and admin token secrets must differ")
	}
	if c.Auth.BcryptCost < bcrypt.DefaultCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.DefaultCost, bcrypt.MaxCost)
	}
	if c.Auth.UserTokenTTL <= 0 || c.Auth.AdminTokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.Auth.AdminTokenTTL > c.Auth.UserTokenTTL {
		return errors.New("admin token ttl cannot exceed user token ttl")
	}
	if c.Uploads.MaxSizeMB <= 0 {
		return errors.New("upload max size must be positive")
	}
	return nil
}

// EnsureSecrets fills empty token secrets with random values and reports which were generated.
// Generated secrets do not survive a restart, so issued tokens stop verifying.
func (a *AuthConfig) EnsureSecrets() ([]string, error) {
	var generated []string
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{"user", &a.UserSecret},
		{"admin", &a.AdminSecret},
	} {
		if *s.dst != "" {
			continue
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate %s secret: %w", s.name, err)
		}
		*s.dst = hex.EncodeToString(buf)
		generated = append(generated, s.name)
	}
	return generated, nil
}
