package models

import "time"

// Config represents the application configuration
type Config struct {
	Backend     BackendConfig
	Identity    IdentityConfig
	Session     SessionConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Watch       WatchConfig
	CatalogFile string
	LogLevel    string
}

// BackendConfig holds settings for the engagement backend
type BackendConfig struct {
	URL        string
	CanisterId string
	Timeout    time.Duration
	RateLimit  float64
	Burst      int
}

// IdentityConfig holds identity provider settings
type IdentityConfig struct {
	ProviderURL   string
	Dir           string
	MaxTimeToLive time.Duration
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	Backend     string
	IdleTimeout time.Duration
	InitTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// RedisConfig holds settings for the shared session store
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// WatchConfig holds settings for the engagement activity watcher
type WatchConfig struct {
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}
