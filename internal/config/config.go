package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	ShareStoreDB    = "db"
	ShareStoreLocal = "local"
	ShareStoreChain = "chain"

	ResolverStorage = "storage"
	ResolverRemote  = "remote"
)

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	JWTTTLHours    int              `json:"jwt_ttl_hours"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	FileStore      FileStoreConfig  `json:"file_store"`
	ShareStore     ShareStoreConfig `json:"share_store"`
	Guest          GuestConfig      `json:"guest"`
	Redis          RedisConfig      `json:"redis"`
	AI             AIConfig         `json:"ai"`
	Jobs           JobsConfig       `json:"jobs"`
	CORSAllowlist  []string         `json:"cors_allowlist"`
	UploadMaxBytes int64            `json:"upload_max_bytes"`
	RateLimitMS    int              `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ShareStoreConfig struct {
	Type      string `json:"type"`
	LocalFile string `json:"local_file"`
}

type GuestConfig struct {
	SignedURLTTLSeconds int            `json:"signed_url_ttl_seconds"`
	AccessTTLMinutes    int            `json:"access_ttl_minutes"`
	SessionTTLHours     int            `json:"session_ttl_hours"`
	SessionCacheSize    int            `json:"session_cache_size"`
	Resolver            ResolverConfig `json:"resolver"`
}

type ResolverConfig struct {
	Type           string `json:"type"`
	RemoteURL      string `json:"remote_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type RedisConfig struct {
	URL    string `json:"url"`
	Prefix string `json:"prefix"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	MaxInputChars int         `json:"max_input_chars"`
	Timeout       int         `json:"timeout"`
	Data          interface{} `json:"data"`
}

type JobsConfig struct {
	ShareExpirySpec string `json:"share_expiry_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 50 * 1024 * 1024
	}
	if cfg.RateLimitMS == 0 {
		cfg.RateLimitMS = 1000
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}

	cfg.ShareStore.Type = strings.ToLower(strings.TrimSpace(cfg.ShareStore.Type))
	if cfg.ShareStore.Type == "" {
		cfg.ShareStore.Type = ShareStoreDB
	}
	switch cfg.ShareStore.Type {
	case ShareStoreDB:
	case ShareStoreLocal, ShareStoreChain:
		if cfg.ShareStore.LocalFile == "" {
			return fmt.Errorf("share_store.local_file is required for %s store", cfg.ShareStore.Type)
		}
	default:
		return fmt.Errorf("share_store.type must be db, local or chain")
	}
	if cfg.ShareStore.Type != ShareStoreLocal && !cfg.HasDatabase() {
		return fmt.Errorf("database.dsn or database.host is required")
	}

	if cfg.Guest.SignedURLTTLSeconds <= 0 {
		cfg.Guest.SignedURLTTLSeconds = 3600
	}
	if cfg.Guest.AccessTTLMinutes <= 0 {
		cfg.Guest.AccessTTLMinutes = 60
	}
	if cfg.Guest.SessionTTLHours <= 0 {
		cfg.Guest.SessionTTLHours = 24
	}
	if cfg.Guest.SessionCacheSize <= 0 {
		cfg.Guest.SessionCacheSize = 10000
	}
	cfg.Guest.Resolver.Type = strings.ToLower(strings.TrimSpace(cfg.Guest.Resolver.Type))
	if cfg.Guest.Resolver.Type == "" {
		cfg.Guest.Resolver.Type = ResolverStorage
	}
	switch cfg.Guest.Resolver.Type {
	case ResolverStorage:
	case ResolverRemote:
		if cfg.Guest.Resolver.RemoteURL == "" {
			return fmt.Errorf("guest.resolver.remote_url is required for remote resolver")
		}
	default:
		return fmt.Errorf("guest.resolver.type must be storage or remote")
	}
	if cfg.Guest.Resolver.Type == ResolverStorage && !cfg.HasDatabase() {
		return fmt.Errorf("storage resolver requires a database")
	}
	if cfg.Guest.Resolver.TimeoutSeconds <= 0 {
		cfg.Guest.Resolver.TimeoutSeconds = 10
	}

	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "docshare:"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "none"
	}
	if cfg.AI.MaxInputChars <= 0 {
		cfg.AI.MaxInputChars = 20000
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.Jobs.ShareExpirySpec == "" {
		cfg.Jobs.ShareExpirySpec = "*/10 * * * *"
	}
	return nil
}

func (cfg *Config) HasDatabase() bool {
	return cfg.Database.DSN != "" || cfg.Database.Host != ""
}
