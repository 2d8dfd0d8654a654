/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"legal-fee-tracker-go/internal/models"
)

const defaultIdentityProvider = "https://id.ai/"

func Load() (*models.Config, error) {
	cfg := &models.Config{
		Backend: models.BackendConfig{
			URL:        getEnvString("BACKEND_URL", "http://127.0.0.1:4943"),
			CanisterId: getEnvString("BACKEND_CANISTER_ID", ""),
			RateLimit:  getEnvFloat("BACKEND_RATE_LIMIT", 10),
			Burst:      getEnvInt("BACKEND_BURST", 5),
		},
		Identity: models.IdentityConfig{
			ProviderURL: getEnvString("II_URL", defaultIdentityProvider),
			Dir:         getEnvString("IDENTITY_DIR", defaultIdentityDir()),
		},
		Session: models.SessionConfig{
			Backend: getEnvString("SESSION_BACKEND", "sqlite"),
		},
		Database: models.DatabaseConfig{
			Path:         getEnvString("SESSION_DB_PATH", "sessions.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 1),
		},
		Redis: models.RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		CatalogFile: getEnvString("CATALOG_FILE", "catalog.yaml"),
		LogLevel:    getEnvString("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Backend.Timeout, err = getEnvDuration("BACKEND_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Identity.MaxTimeToLive, err = getEnvDuration("IDENTITY_MAX_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.IdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Session.InitTimeout, err = getEnvDuration("SESSION_INIT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxIdleTime, err = getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Database.PingTimeout, err = getEnvDuration("DB_PING_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Watch.LookbackWindow, err = getEnvDuration("WATCH_LOOKBACK_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Watch.PollingInterval, err = getEnvDuration("WATCH_POLLING_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Watch.CleanupInterval, err = getEnvDuration("WATCH_CLEANUP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.DialTimeout, err = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultIdentityDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".legal-fee-tracker"
	}
	return filepath.Join(home, ".legal-fee-tracker")
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
