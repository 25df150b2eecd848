package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisDao implements ProfileRepository on Redis. This is the shared
// persistent mirror of the per-tab in-process state: every tab writes its
// session blobs here, and tabs pick up changes on their next cache expiry or
// explicit reinitialization.
type RedisDao struct {
	Client *redis.Client
	Logger *logrus.Logger

	// TTL bounds how long an abandoned session blob lingers. Zero means no
	// expiry.
	TTL time.Duration
}

func (dao *RedisDao) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := dao.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisDao.Get",
			"key":       key,
		}).WithError(err).Error("Failed to read session blob from redis")
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

func (dao *RedisDao) Put(ctx context.Context, key string, value []byte) error {
	if err := dao.Client.Set(ctx, key, value, dao.TTL).Err(); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisDao.Put",
			"key":       key,
		}).WithError(err).Error("Failed to write session blob to redis")
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (dao *RedisDao) Delete(ctx context.Context, key string) error {
	if err := dao.Client.Del(ctx, key).Err(); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisDao.Delete",
			"key":       key,
		}).WithError(err).Error("Failed to delete session blob from redis")
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
