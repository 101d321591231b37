package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const (
	openRidesKey = "rides:open"
	openRidesTTL = 30 * time.Second
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheOpenRides stores the open-rides listing with a short TTL. The
// database stays authoritative; this only absorbs repeated catalog reads.
func CacheOpenRides(ctx context.Context, rides interface{}) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(rides)
	if err != nil {
		return err
	}

	return RedisClient.Set(ctx, openRidesKey, data, openRidesTTL).Err()
}

// GetCachedOpenRides retrieves the cached open-rides listing. A miss or a
// Redis failure returns false so the caller falls through to the database.
func GetCachedOpenRides(ctx context.Context) ([]map[string]interface{}, bool) {
	if RedisClient == nil {
		return nil, false
	}

	data, err := RedisClient.Get(ctx, openRidesKey).Result()
	if err != nil {
		return nil, false
	}

	var rides []map[string]interface{}
	if err := json.Unmarshal([]byte(data), &rides); err != nil {
		return nil, false
	}

	return rides, true
}

// InvalidateOpenRides drops the cached listing after any write that changes
// ride availability (new offer, seat booked).
func InvalidateOpenRides(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, openRidesKey).Err()
}
