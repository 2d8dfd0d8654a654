package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionKey = "tracker:session:current"

var _ store.SessionStore = (*RedisService)(nil)

// RedisService keeps the current session in Redis so several tracker
// processes on one machine share it. Entries expire after the idle timeout.
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(ctx context.Context, cfg models.RedisConfig, ttl time.Duration) (*RedisService, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(cerr))
		}
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	zap.L().Info("Redis session store connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &RedisService{client: client, ttl: ttl}, nil
}

func (r *RedisService) Close() {
	if err := r.client.Close(); err != nil {
		zap.L().Warn("Failed to close redis client", zap.Error(err))
	}
}

func (r *RedisService) LoadSession(ctx context.Context) (*models.SessionRecord, error) {
	data, err := r.client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get session: %w", err)
	}

	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unable to unmarshal session: %w", err)
	}
	return &rec, nil
}

func (r *RedisService) SaveSession(ctx context.Context, rec models.SessionRecord) error {
	if rec.Principal == "" {
		return fmt.Errorf("session principal cannot be empty")
	}
	if rec.Id == "" {
		rec.Id = uuid.New().String()
	}
	if err := r.put(ctx, r.client, rec); err != nil {
		return err
	}

	zap.L().Info("Session saved",
		zap.String("session_id", rec.Id),
		zap.String("principal", rec.Principal))
	return nil
}

func (r *RedisService) UpdateRole(ctx context.Context, principal string, role models.Role) error {
	return r.update(ctx, principal, func(rec *models.SessionRecord) {
		rec.Role = role
	})
}

func (r *RedisService) TouchSession(ctx context.Context, principal string, at time.Time) error {
	return r.update(ctx, principal, func(rec *models.SessionRecord) {
		if at.After(rec.LastActiveAt) {
			rec.LastActiveAt = at.UTC()
		}
	})
}

func (r *RedisService) ClearSession(ctx context.Context) error {
	if err := r.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("unable to delete session: %w", err)
	}
	return nil
}

// update applies fn to the stored record inside an optimistic transaction so
// a concurrent login is never overwritten with a stale record.
func (r *RedisService) update(ctx context.Context, principal string, fn func(*models.SessionRecord)) error {
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, sessionKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrNoSession
		}
		if err != nil {
			return fmt.Errorf("unable to get session: %w", err)
		}

		var rec models.SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unable to unmarshal session: %w", err)
		}
		if rec.Principal != principal {
			return store.ErrSessionMismatch
		}
		fn(&rec)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.put(ctx, pipe, rec)
		})
		return err
	}, sessionKey)
}

func (r *RedisService) put(ctx context.Context, c redis.Cmdable, rec models.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("unable to marshal session: %w", err)
	}
	if err := c.Set(ctx, sessionKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("unable to save session: %w", err)
	}
	return nil
}
