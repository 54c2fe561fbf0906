/*
 * @module service/distributed_lock/redis_lock
 * @description Redis distributed lock, keeps scheduled recalculation runs from executing twice in multi-replica deployments
 * @architecture utility layer - distributed lock
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow acquire lock -> run job -> release lock / auto expire
 * @rules SET NX with TTL; only guards the cron-triggered path, API-triggered recalculations stay unexcluded
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/scheduler/recalculation_scheduler.go
 */

package distributed_lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedLock minimal lock contract used by the scheduler
type DistributedLock interface {
	// TryLock attempts to acquire the lock
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock releases the lock when held by this instance
	Unlock(ctx context.Context, key string) error
}

// RedisLock redis-backed lock implementation
type RedisLock struct {
	client     *redis.Client
	instanceID string // identifies the lock holder
}

// NewRedisLock creates a redis lock from REDIS_* environment variables.
func NewRedisLock() (*RedisLock, error) {
	host := getEnvWithDefault("REDIS_HOST", "localhost")
	port := getEnvWithDefault("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		fmt.Sscanf(dbStr, "%d", &db)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s:%d", hostname, os.Getpid())

	slog.Info("redis distributed lock initialized",
		"instance_id", instanceID,
		"redis_host", host,
		"redis_port", port)

	return &RedisLock{
		client:     client,
		instanceID: instanceID,
	}, nil
}

// TryLock attempts to acquire the lock with SET NX; it succeeds only when
// the key does not exist yet.
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("qs_score_recalc:lock:%s", key)

	acquired, err := r.client.SetNX(ctx, lockKey, r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lock: %w", err)
	}

	if acquired {
		slog.Debug("distributed lock acquired",
			"key", key,
			"ttl", ttl,
			"instance", r.instanceID)
	}

	return acquired, nil
}

// Unlock releases the lock. A Lua script guarantees only the holder
// deletes the key.
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("qs_score_recalc:lock:%s", key)

	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{lockKey}, r.instanceID).Result()
	if err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}

	if result.(int64) != 1 {
		slog.Warn("lock missing or held by another instance",
			"key", key,
			"instance", r.instanceID)
	}

	return nil
}

// Close closes the redis client
func (r *RedisLock) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// getEnvWithDefault returns an environment variable or a fallback value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LockExecutor runs a function under lock protection
type LockExecutor struct {
	lock DistributedLock
}

// NewLockExecutor creates a lock executor
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock}
}

// ExecuteWithLock runs fn only when the lock is acquired. Another instance
// holding the lock is not an error, the run is simply skipped.
func (e *LockExecutor) ExecuteWithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	if !locked {
		slog.Debug("lock held by another instance, skipping run", "key", key)
		return nil
	}

	defer func() {
		if unlockErr := e.lock.Unlock(ctx, key); unlockErr != nil {
			slog.Error("releasing lock failed", "key", key, "error", unlockErr)
		}
	}()

	return fn()
}
