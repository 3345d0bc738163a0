package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamasit07/drop4/pkg/logger"
)

var RedisClient *redis.Client
var redisEnabled bool

// InitRedis connects to addr, which is either host:port or a redis:// URL.
// An empty addr or an unreachable server leaves Redis disabled; the service
// runs without the oracle cache in that case.
func InitRedis(addr, password string) error {
	redisEnabled = false
	if addr == "" {
		logger.Info("REDIS", "REDIS_URL not set, oracle cache disabled")
		return nil
	}

	opts := &redis.Options{Addr: addr, Password: password, DB: 0}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return err
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}

	RedisClient = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("REDIS", "Could not connect to Redis: %v. Oracle answers will not be cached.", err)
		return nil
	}

	redisEnabled = true
	logger.Info("REDIS", "Connected successfully")
	return nil
}

func IsRedisEnabled() bool {
	return redisEnabled
}

func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// MoveCache keeps oracle answers as plain column numbers under the oracle's
// key, with a TTL so stale model answers age out.
type MoveCache struct {
	client *redis.Client
}

func NewMoveCache(client *redis.Client) *MoveCache {
	return &MoveCache{client: client}
}

// LookupMove reports ok=false on a miss; err is set only when Redis fails or
// the stored value is not a column.
func (m *MoveCache) LookupMove(ctx context.Context, key string) (int, bool, error) {
	val, err := m.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return -1, false, nil
	}
	if err != nil {
		return -1, false, err
	}
	col, err := strconv.Atoi(val)
	if err != nil {
		return -1, false, fmt.Errorf("cached value %q for %s: %w", val, key, err)
	}
	return col, true, nil
}

func (m *MoveCache) StoreMove(ctx context.Context, key string, column int, ttl time.Duration) error {
	return m.client.Set(ctx, key, strconv.Itoa(column), ttl).Err()
}
