package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"dispatchportal/lib/constants"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AssignmentRecord is one local assignment cache entry: which user a job was
// dispatched to, and when the association was recorded. The cache only
// bridges the window between dispatch and the server read path catching up;
// server-provided driver fields always win once present.
type AssignmentRecord struct {
	UserID     string    `json:"userId"`
	RecordedAt time.Time `json:"timestamp"`
}

// AssignmentCacheRepository defines the interface for the local assignment
// cache, keyed by job id.
type AssignmentCacheRepository interface {
	// Get returns the record for a job, or ErrKeyNotFound.
	Get(ctx context.Context, jobID string) (*AssignmentRecord, error)

	// Put stores or replaces the record for a job.
	Put(ctx context.Context, jobID string, record *AssignmentRecord) error

	// Delete removes the record for a job. Missing records are not an error.
	Delete(ctx context.Context, jobID string) error
}

// MemoryAssignmentDao implements AssignmentCacheRepository in-process.
type MemoryAssignmentDao struct {
	Logger *logrus.Logger

	mu      sync.RWMutex
	records map[string]AssignmentRecord
}

// NewMemoryAssignmentDao creates an empty in-memory assignment cache.
func NewMemoryAssignmentDao(logger *logrus.Logger) *MemoryAssignmentDao {
	return &MemoryAssignmentDao{
		Logger:  logger,
		records: make(map[string]AssignmentRecord),
	}
}

func (dao *MemoryAssignmentDao) Get(ctx context.Context, jobID string) (*AssignmentRecord, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	record, ok := dao.records[jobID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &record, nil
}

func (dao *MemoryAssignmentDao) Put(ctx context.Context, jobID string, record *AssignmentRecord) error {
	if record == nil {
		return fmt.Errorf("nil assignment record for job %q", jobID)
	}

	dao.mu.Lock()
	defer dao.mu.Unlock()
	dao.records[jobID] = *record
	return nil
}

func (dao *MemoryAssignmentDao) Delete(ctx context.Context, jobID string) error {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	delete(dao.records, jobID)
	return nil
}

// RedisAssignmentDao implements AssignmentCacheRepository on Redis under a
// job_assignment: key prefix, so fresh dispatch associations survive a page
// reload.
type RedisAssignmentDao struct {
	Client *redis.Client
	Logger *logrus.Logger

	// TTL bounds how long a bridge entry lives; the cache is only meaningful
	// until the server read path has caught up.
	TTL time.Duration
}

func (dao *RedisAssignmentDao) key(jobID string) string {
	return constants.AssignmentKeyPrefix + jobID
}

func (dao *RedisAssignmentDao) Get(ctx context.Context, jobID string) (*AssignmentRecord, error) {
	value, err := dao.Client.Get(ctx, dao.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisAssignmentDao.Get",
			"job_id":    jobID,
		}).WithError(err).Error("Failed to read assignment record")
		return nil, fmt.Errorf("failed to read assignment for job %q: %w", jobID, err)
	}

	var record AssignmentRecord
	if err := json.Unmarshal(value, &record); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisAssignmentDao.Get",
			"job_id":    jobID,
		}).WithError(err).Error("Failed to decode assignment record")
		return nil, fmt.Errorf("failed to decode assignment for job %q: %w", jobID, err)
	}
	return &record, nil
}

func (dao *RedisAssignmentDao) Put(ctx context.Context, jobID string, record *AssignmentRecord) error {
	if record == nil {
		return fmt.Errorf("nil assignment record for job %q", jobID)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode assignment for job %q: %w", jobID, err)
	}

	if err := dao.Client.Set(ctx, dao.key(jobID), value, dao.TTL).Err(); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisAssignmentDao.Put",
			"job_id":    jobID,
		}).WithError(err).Error("Failed to write assignment record")
		return fmt.Errorf("failed to write assignment for job %q: %w", jobID, err)
	}
	return nil
}

func (dao *RedisAssignmentDao) Delete(ctx context.Context, jobID string) error {
	if err := dao.Client.Del(ctx, dao.key(jobID)).Err(); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "RedisAssignmentDao.Delete",
			"job_id":    jobID,
		}).WithError(err).Error("Failed to delete assignment record")
		return fmt.Errorf("failed to delete assignment for job %q: %w", jobID, err)
	}
	return nil
}
