package roomcode

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "roomcode:"

	// DefaultClaimTTL bounds how long a claimed code stays held if the
	// session it was drawn for is never stored.
	DefaultClaimTTL = time.Minute
)

// RedisRegistry stores held codes as Redis keys so that several server
// processes share one code space. Claimed keys expire after the claim TTL
// unless Commit makes them permanent.
type RedisRegistry struct {
	client   redis.UniversalClient
	claimTTL time.Duration
}

func NewRedisRegistry(client redis.UniversalClient, claimTTL time.Duration) *RedisRegistry {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &RedisRegistry{client: client, claimTTL: claimTTL}
}

// DialRedis parses a redis:// URL and checks the server is reachable.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisRegistry) Claim(ctx context.Context, code string) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+code, 1, r.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim room code: %w", err)
	}
	return ok, nil
}

// Commit drops the expiry from a claimed code. A claim that already lapsed
// is written again.
func (r *RedisRegistry) Commit(ctx context.Context, code string) error {
	key := redisKeyPrefix + code
	persisted, err := r.client.Persist(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("commit room code: %w", err)
	}
	if persisted {
		return nil
	}
	if err := r.client.Set(ctx, key, 1, 0).Err(); err != nil {
		return fmt.Errorf("commit room code: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Release(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("release room code: %w", err)
	}
	return nil
}

// Reserve makes codes permanently held and deletes every other permanent
// key, so the registry matches the live sessions again after a restart.
// Claims still inside their TTL belong to creates in flight and are kept.
func (r *RedisRegistry) Reserve(ctx context.Context, codes []string) error {
	keep := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		keep[redisKeyPrefix+code] = struct{}{}
	}
	if len(codes) > 0 {
		_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for key := range keep {
				pipe.Set(ctx, key, 1, 0)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("reserve room codes: %w", err)
		}
	}

	var stale []string
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, ok := keep[key]; ok {
			continue
		}
		ttl, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("inspect room code %s: %w", key, err)
		}
		// -1 means the key exists without an expiry.
		if ttl == -1 {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan room codes: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("drop stale room codes: %w", err)
	}
	return nil
}
