package storage

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/pkg/errors"

	redissrv "CampusChat/service/storage/redis"
)

var ctx = context.Background()

// presence key: im:presence:<user>; value is the gateway id, TTL bounds the
// online validity period if a gateway dies without cleaning up.
func presenceKey(user string) string { return "im:presence:" + user }
func lastSeenKey(user string) string { return "im:lastseen:" + user }

// Mirror is the Redis-backed presence view handed to the coordinator.
type Mirror struct {
	GatewayID string
	TTL       time.Duration
}

func NewMirror(gatewayID string, ttl time.Duration) *Mirror {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Mirror{GatewayID: gatewayID, TTL: ttl}
}

func (m *Mirror) Online(user string) error {
	return PresenceOnline(user, m.GatewayID, m.TTL)
}

func (m *Mirror) Offline(user string, lastSeen time.Time) error {
	if err := SetLastSeen(user, lastSeen); err != nil {
		return err
	}
	return PresenceOffline(user)
}

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(user, gatewayID string, ttl time.Duration) error {
	rdb := redissrv.R()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(user string) error {
	rdb := redissrv.R()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup checks whether the user is online anywhere, and on which
// gateway.
func PresenceLookup(user string) (gatewayID string, online bool, err error) {
	rdb := redissrv.R()
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func SetLastSeen(user string, ts time.Time) error {
	rdb := redissrv.R()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, lastSeenKey(user), ts.UTC().Format(time.RFC3339), 0).Err()
}

func LastSeen(user string) (time.Time, bool, error) {
	rdb := redissrv.R()
	if rdb == nil {
		return time.Time{}, false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, lastSeenKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}
