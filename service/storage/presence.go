package storage

import (
	"context"
	"time"

	redisstore "CareGene/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: caregene:presence:<user>, TTL bounds the online window
func presenceKey(user string) string { return "caregene:presence:" + user }

// PresenceOnline marks the user online and renews the TTL.
func PresenceOnline(ctx context.Context, user string, ttl time.Duration) error {
	return redisstore.GetRedis().Set(ctx, presenceKey(user), "1", ttl).Err()
}

// PresenceOffline deletes the key, taking the user offline immediately.
func PresenceOffline(ctx context.Context, user string) error {
	return redisstore.GetRedis().Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user currently holds a live
// connection on any node.
func PresenceLookup(ctx context.Context, user string) (bool, error) {
	err := redisstore.GetRedis().Get(ctx, presenceKey(user)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
