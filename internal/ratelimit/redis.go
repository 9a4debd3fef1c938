package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings. An empty addr yields a nil client and no error, a failed
// ping yields an error; either way the caller falls back to another store.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// incrWindow counts the request and arms the expiry in one step, so a key can never be
// left without a TTL. It also repairs keys written by older code that lost theirs.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisWindow is a fixed-window limiter on an INCR with an atomic PEXPIRE.
// key format: rl:<prefix>:<window_seconds>:<identifier>
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisWindow(client *redis.Client, prefix string, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{client: client, prefix: prefix, limit: limit, window: window}
}

func (w *RedisWindow) key(ident string) string {
	return "rl:" + w.prefix + ":" + strconv.FormatInt(int64(w.window.Seconds()), 10) + ":" + ident
}

func (w *RedisWindow) Allow(ctx context.Context, ident string, _ time.Time) (Decision, error) {
	res, err := incrWindow.Run(ctx, w.client, []string{w.key(ident)}, w.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if len(res) != 2 {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	val, ttl := res[0], time.Duration(res[1])*time.Millisecond

	if val > int64(w.limit) {
		return Decision{RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: w.limit - int(val)}, nil
}

// RedisBanStore stores the ban deadline in epoch ms with a matching TTL.
type RedisBanStore struct {
	client *redis.Client
	prefix string
}

func NewRedisBanStore(client *redis.Client, prefix string) *RedisBanStore {
	return &RedisBanStore{client: client, prefix: prefix}
}

func (s *RedisBanStore) BannedUntil(ctx context.Context, key string) (time.Time, error) {
	ms, err := s.client.Get(ctx, "ban:"+s.prefix+":"+key).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (s *RedisBanStore) Ban(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, "ban:"+s.prefix+":"+key, until.UnixMilli(), ttl).Err()
}
